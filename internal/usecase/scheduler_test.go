package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type stubDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *stubDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *stubDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

type stubSweeper struct {
	count  int
	err    error
	calls  int
	ctxErr error

	block   chan struct{}
	entered chan struct{}
}

func (s *stubSweeper) RunSweep(ctx context.Context) (int, error) {
	s.calls++
	s.ctxErr = ctx.Err()
	if s.entered != nil {
		close(s.entered)
	}
	if s.block != nil {
		<-s.block
	}
	return s.count, s.err
}

type stubNotifier struct {
	mu      sync.Mutex
	digests []string
	err     error
}

func (n *stubNotifier) PublishDigest(_ context.Context, digest string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.digests = append(n.digests, digest)
	return n.err
}

func TestSchedulerTriggersSweep(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{}
	sweeper := &stubSweeper{count: 3}
	notifier := &stubNotifier{}
	s := NewScheduler(driver, sweeper, notifier, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if driver.job == nil {
		t.Fatal("job was not registered")
	}

	driver.job(time.Date(2025, 11, 8, 6, 0, 0, 0, time.UTC))

	if sweeper.calls != 1 {
		t.Fatalf("expected 1 sweep, got %d", sweeper.calls)
	}
	if len(notifier.digests) != 1 || !strings.Contains(notifier.digests[0], "3 item(s)") {
		t.Fatalf("unexpected digests: %v", notifier.digests)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if !driver.stopped {
		t.Fatal("driver was not stopped")
	}
}

func TestSchedulerSweepOutlivesStartContext(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{}
	sweeper := &stubSweeper{count: 1}
	s := NewScheduler(driver, sweeper, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	cancel()

	driver.job(time.Date(2025, 11, 8, 6, 0, 0, 0, time.UTC))

	if sweeper.calls != 1 {
		t.Fatalf("expected 1 sweep, got %d", sweeper.calls)
	}
	if sweeper.ctxErr != nil {
		t.Fatalf("sweep saw a cancelled context: %v", sweeper.ctxErr)
	}
}

func TestSchedulerSkipsDigestWhenNothingChanged(t *testing.T) {
	t.Parallel()

	notifier := &stubNotifier{}
	s := NewScheduler(nil, &stubSweeper{}, notifier, nil)

	count, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0, got %d", count)
	}
	if len(notifier.digests) != 0 {
		t.Fatalf("unexpected digests: %v", notifier.digests)
	}
}

func TestSchedulerPropagatesSweepError(t *testing.T) {
	t.Parallel()

	fault := errors.New("boom")
	notifier := &stubNotifier{}
	s := NewScheduler(nil, &stubSweeper{count: 2, err: fault}, notifier, nil)

	if _, err := s.RunOnce(context.Background()); !errors.Is(err, fault) {
		t.Fatalf("expected sweep error, got %v", err)
	}
	if len(notifier.digests) != 0 {
		t.Fatal("digest must not be sent for a failed sweep")
	}
}

func TestSchedulerNotifierErrorIsNotFatal(t *testing.T) {
	t.Parallel()

	notifier := &stubNotifier{err: errors.New("telegram down")}
	s := NewScheduler(nil, &stubSweeper{count: 1}, notifier, nil)

	count, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1, got %d", count)
	}
}

func TestSchedulerSkipsOverlappingSweep(t *testing.T) {
	t.Parallel()

	sweeper := &stubSweeper{count: 1, block: make(chan struct{}), entered: make(chan struct{})}
	s := NewScheduler(nil, sweeper, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.RunOnce(context.Background())
	}()

	<-sweeper.entered
	count, err := s.RunOnce(context.Background())
	if err != nil || count != 0 {
		t.Fatalf("overlapping run: count=%d err=%v", count, err)
	}

	close(sweeper.block)
	<-done

	if sweeper.calls != 1 {
		t.Fatalf("expected a single sweep, got %d", sweeper.calls)
	}
}
