package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := Loop(ctx, Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		Process: func(_ context.Context) error {
			calls++

			return nil
		},
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Greater(t, calls, 0)
}

func TestLoopExitsWhenOnErrorSaysStop(t *testing.T) {
	boom := errors.New("boom")

	err := Loop(context.Background(), Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		Process: func(_ context.Context) error {
			return boom
		},
		OnError: func(_ error) bool { return false },
	})

	require.ErrorIs(t, err, boom)
}

func TestLoopContinuesWhenOnErrorSaysContinue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0

	err := Loop(ctx, Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		Process: func(_ context.Context) error {
			calls++
			if calls >= 3 {
				cancel()
			}

			return errors.New("transient")
		},
		OnError: func(_ error) bool { return true },
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, calls, 3)
}

func TestWait(t *testing.T) {
	require.NoError(t, Wait(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}
