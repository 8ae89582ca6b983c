package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHourlyBucket_DrainsAndBlocks(t *testing.T) {
	b := NewHourlyBucket(2)
	fakeNow := time.Now()
	b.now = func() time.Time { return fakeNow }
	b.resetAt = fakeNow.Add(time.Hour)

	require.NoError(t, b.Take(context.Background()))
	require.NoError(t, b.Take(context.Background()))
	assert.Equal(t, 0, b.Remaining())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := b.Take(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHourlyBucket_ResetsAtHourBoundary(t *testing.T) {
	b := NewHourlyBucket(1)
	fakeNow := time.Now()
	b.now = func() time.Time { return fakeNow }
	b.resetAt = fakeNow.Add(time.Hour)

	require.NoError(t, b.Take(context.Background()))
	assert.Equal(t, 0, b.Remaining())

	fakeNow = fakeNow.Add(time.Hour + time.Second)
	assert.Equal(t, 1, b.Remaining())
	require.NoError(t, b.Take(context.Background()))
}
