package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Name  string `json:"name"`
	Items int    `json:"items"`
}

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	var got page
	assert.False(t, c.Get(ctx, "menu:r1", &got))

	require.NoError(t, c.Set(ctx, "menu:r1", page{Name: "Luigi's", Items: 3}))
	require.True(t, c.Get(ctx, "menu:r1", &got))
	assert.Equal(t, page{Name: "Luigi's", Items: 3}, got)

	require.NoError(t, c.Delete(ctx, "menu:r1"))
	assert.False(t, c.Get(ctx, "menu:r1", &got))
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", page{Name: "x"}))
	now = now.Add(2 * time.Minute)

	var got page
	assert.False(t, c.Get(ctx, "k", &got))
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	require.NoError(t, c.Set(context.Background(), "k", 1))
	var v int
	assert.False(t, c.Get(context.Background(), "k", &v))
}
