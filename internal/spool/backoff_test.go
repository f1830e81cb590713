package spool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff_DoublesUpToMax(t *testing.T) {
	b := NewBackoff(time.Millisecond, 3*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, b.Sleep(ctx))
	assert.Equal(t, 2*time.Millisecond, b.Current())
	require.NoError(t, b.Sleep(ctx))
	assert.Equal(t, 3*time.Millisecond, b.Current())
	require.NoError(t, b.Sleep(ctx))
	assert.Equal(t, 3*time.Millisecond, b.Current())

	b.Reset()
	assert.Equal(t, time.Millisecond, b.Current())
}

func TestBackoff_SleepCancelled(t *testing.T) {
	b := NewBackoff(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := b.Sleep(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
