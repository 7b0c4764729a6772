package harvest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDelayDisabled(t *testing.T) {
	start := time.Now()
	require.NoError(t, Delay{}.Wait(context.Background()))
	require.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestDelayWaitsWithinBounds(t *testing.T) {
	delay := Delay{Min: time.Millisecond, Max: 5 * time.Millisecond}
	for i := 0; i < 20; i++ {
		require.NoError(t, delay.Wait(context.Background()))
	}
}

func TestDelayHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Delay{Min: time.Minute, Max: 2 * time.Minute}.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second)
}
