package bot

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSupervise_RestartsAfterFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs, restarts atomic.Int32
	run := func(ctx context.Context) error {
		if runs.Add(1) < 3 {
			return errors.New("network is unreachable")
		}
		<-ctx.Done()
		return ctx.Err()
	}

	done := make(chan struct{})
	go func() {
		Supervise(ctx, run, 10*time.Millisecond, func() { restarts.Add(1) }, zap.NewNop())
		close(done)
	}()

	assert.Eventually(t, func() bool { return runs.Load() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), restarts.Load())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Supervise did not return after cancel")
	}
}

func TestSupervise_CancelDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var restarts atomic.Int32

	done := make(chan struct{})
	go func() {
		Supervise(ctx, func(context.Context) error { return ErrUpdatesClosed }, time.Hour, func() { restarts.Add(1) }, zap.NewNop())
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Supervise did not return after cancel")
	}
	assert.Equal(t, int32(0), restarts.Load())
}
