package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilClientDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	c := NewService(nil)

	assert.False(t, c.IsAvailable())
	assert.Error(t, c.Ping(ctx))

	var out map[string]int
	assert.ErrorIs(t, c.Get(ctx, "k", &out), ErrMiss)
	assert.ErrorIs(t, c.GetAdminStats(ctx, &out), ErrMiss)

	assert.NoError(t, c.Set(ctx, "k", 1, TTLDefault))
	assert.NoError(t, c.SetAdminStats(ctx, map[string]int{"a": 1}))
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.InvalidateDashboards(ctx))
}
