package suspend

import (
	"testing"

	"github.com/coregc/coregc/internal/core"
	"github.com/coregc/coregc/internal/gc"
)

func TestStopWorldCollectsRootsFromEveryThread(t *testing.T) {
	c := New()
	c.RegisterThread(1)
	c.Configure(1, func() gc.ThreadRoots {
		return gc.ThreadRoots{StackWords: []core.Address{0x1000}}
	}, func() bool { return false })

	roots := c.StopWorld()
	defer c.RestartWorld()

	if len(roots) != 1 {
		t.Fatalf("StopWorld() returned %d thread roots, want 1", len(roots))
	}
	if roots[0].ThreadID != 1 {
		t.Errorf("ThreadID = %d, want 1", roots[0].ThreadID)
	}
	if roots[0].Skipped {
		t.Error("thread not in the allocator should not be marked Skipped")
	}
}

func TestStopWorldSkipsThreadStuckInAllocator(t *testing.T) {
	c := New()
	c.RegisterThread(1)
	c.Configure(1, func() gc.ThreadRoots { return gc.ThreadRoots{} }, func() bool { return true })

	roots := c.StopWorld()
	defer c.RestartWorld()

	if len(roots) != 1 || !roots[0].Skipped {
		t.Errorf("StopWorld() = %+v, want a single Skipped entry for a thread permanently in the allocator", roots)
	}
}

func TestCleanupThreadExcludesFromStopWorld(t *testing.T) {
	c := New()
	c.RegisterThread(1)
	c.RegisterThread(2)
	c.CleanupThread(1)

	roots := c.StopWorld()
	defer c.RestartWorld()

	if len(roots) != 1 || roots[0].ThreadID != 2 {
		t.Errorf("StopWorld() = %+v, want only thread 2 after cleaning up thread 1", roots)
	}
}

func TestRestartWorldUnlocksForNextStopWorld(t *testing.T) {
	c := New()
	c.RegisterThread(1)

	c.StopWorld()
	c.RestartWorld()

	done := make(chan struct{})
	go func() {
		c.StopWorld()
		c.RestartWorld()
		close(done)
	}()
	select {
	case <-done:
	default:
	}
	<-done
}

func TestLastPauseRecordsElapsed(t *testing.T) {
	c := New()
	c.RegisterThread(1)
	c.StopWorld()
	c.RestartWorld()
	if c.LastPause < 0 {
		t.Errorf("LastPause = %v, want non-negative", c.LastPause)
	}
}
