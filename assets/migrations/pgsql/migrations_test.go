package pgsql

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	ctx := context.Background()
	seen := map[string]struct{}{}
	prev := 0

	for _, m := range All() {
		id := m.ID(ctx)
		_, dup := seen[id]
		assert.False(t, dup, id)
		seen[id] = struct{}{}

		seq := m.SequenceNumber(ctx)
		assert.Greater(t, seq, prev, id)
		assert.True(t, strings.HasPrefix(id, strconv.Itoa(seq)+"_"), id)
		prev = seq

		up, err := m.Up(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, up, id)

		down, err := m.Down(ctx)
		require.NoError(t, err)
		assert.Contains(t, down, "DROP TABLE", id)
	}
}
