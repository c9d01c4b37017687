package cache_test

import (
	"context"
	"testing"
	"time"

	"career-catalog-backend/pkg/cache"

	"github.com/stretchr/testify/assert"
)

func TestNoopAlwaysMisses(t *testing.T) {
	var c cache.Cache = cache.Noop{}
	ctx := context.Background()

	assert.NoError(t, c.SetJSON(ctx, "analytics:categories", []int{1, 2}, time.Minute))

	var out []int
	assert.ErrorIs(t, c.GetJSON(ctx, "analytics:categories", &out), cache.ErrMiss)
	assert.Nil(t, out)
	assert.NoError(t, c.DeletePrefix(ctx, "analytics:"))
}
