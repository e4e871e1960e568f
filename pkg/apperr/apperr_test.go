package apperr_test

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	testCases := []struct {
		Name string
		Err  error
		Kind apperr.Kind
	}{
		{Name: "nil", Err: nil, Kind: ""},
		{Name: "bad request", Err: apperr.BadRequest("missing %s", "name"), Kind: apperr.KindBadRequest},
		{Name: "wrapped not found", Err: fmt.Errorf("get app: %w", apperr.NotFound("app not found")), Kind: apperr.KindNotFound},
		{Name: "store error", Err: fmt.Errorf("select: %w", sql.ErrConnDone), Kind: apperr.KindInternal},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			assert.Equal(t, testCase.Kind, apperr.KindOf(testCase.Err))
		})
	}
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("wrap: %w", apperr.AlreadyExists("app %s already exists", "v1.demo"))
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "app v1.demo already exists", apperr.Message(err))
	assert.Equal(t, "", apperr.Message(sql.ErrNoRows))
}
