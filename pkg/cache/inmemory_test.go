package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stevelaver/developer-portal-sub000/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedCaller struct {
	Email   string   `json:"email"`
	Vendors []string `json:"vendors"`
	IsAdmin bool     `json:"isAdmin"`
}

func TestNewInMemory(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		c, err := cache.NewInMemory(0)
		assert.NotNil(t, c)
		assert.NoError(t, err)
	})
}

func TestInMemory_GetAs(t *testing.T) {
	t.Run("no key found", func(t *testing.T) {
		c, err := cache.NewInMemory(0)
		require.NoError(t, err)

		var out cachedCaller
		err = c.GetAs(context.Background(), "key", &out)
		assert.Error(t, err)
		assert.ErrorIs(t, err, cache.ErrKeyNotExist)
	})

	t.Run("success", func(t *testing.T) {
		c, err := cache.NewInMemory(0)
		require.NoError(t, err)

		in := cachedCaller{
			Email:   "dev@keboola.com",
			Vendors: []string{"keboola", "ex"},
		}

		err = c.SetExp(context.Background(), "key", in, -1)
		assert.NoError(t, err)

		var out cachedCaller
		err = c.GetAs(context.Background(), "key", &out)
		assert.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("expired", func(t *testing.T) {
		c, err := cache.NewInMemory(0)
		require.NoError(t, err)

		err = c.SetExp(context.Background(), "key", cachedCaller{Email: "a@b.c"}, time.Millisecond)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)

		var out cachedCaller
		err = c.GetAs(context.Background(), "key", &out)
		assert.ErrorIs(t, err, cache.ErrKeyNotExist)
	})
}

func TestInMemory_SetExp(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		c, err := cache.NewInMemory(0)
		require.NoError(t, err)

		in := map[string]interface{}{
			"key": make(chan int, 1),
		}

		err = c.SetExp(context.Background(), "key", in, -1)
		assert.Error(t, err)
	})
}

func TestInMemory_Delete(t *testing.T) {
	c, err := cache.NewInMemory(0)
	require.NoError(t, err)

	err = c.SetExp(context.Background(), "key", cachedCaller{Email: "a@b.c"}, -1)
	assert.NoError(t, err)

	err = c.Delete(context.Background(), "key")
	assert.NoError(t, err)

	var out cachedCaller
	err = c.GetAs(context.Background(), "key", &out)
	assert.ErrorIs(t, err, cache.ErrKeyNotExist)
}

func TestNoop(t *testing.T) {
	c := cache.NewNoop()
	assert.NoError(t, c.SetExp(context.Background(), "key", cachedCaller{}, time.Minute))

	var out cachedCaller
	assert.ErrorIs(t, c.GetAs(context.Background(), "key", &out), cache.ErrKeyNotExist)
	assert.NoError(t, c.Delete(context.Background(), "key"))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "portal:app:v1.demo", cache.Key("portal", "", "app", " v1.demo "))
}
