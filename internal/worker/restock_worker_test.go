package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFinder struct {
	ids []int
	err error
}

func (s *stubFinder) GetRestockedWithPendingAlerts() ([]int, error) {
	return s.ids, s.err
}

type stubNotifier struct {
	notified []int
	errOn    int
}

func (s *stubNotifier) NotifyRestocked(_ context.Context, productID int) (int, error) {
	if productID == s.errOn {
		return 0, errors.New("batch failed")
	}
	s.notified = append(s.notified, productID)
	return 1, nil
}

func TestRestockWorkerRun_ProcessesAllPending(t *testing.T) {
	finder := &stubFinder{ids: []int{3, 7, 11}}
	notifier := &stubNotifier{}
	w := NewRestockWorker(finder, notifier, time.Minute)

	w.run(context.Background())

	assert.Equal(t, []int{3, 7, 11}, notifier.notified)
}

func TestRestockWorkerRun_ContinuesPastFailedBatch(t *testing.T) {
	finder := &stubFinder{ids: []int{3, 7, 11}}
	notifier := &stubNotifier{errOn: 7}
	w := NewRestockWorker(finder, notifier, time.Minute)

	w.run(context.Background())

	assert.Equal(t, []int{3, 11}, notifier.notified, "one failing product must not block the rest")
}

func TestRestockWorkerRun_FinderError(t *testing.T) {
	finder := &stubFinder{err: errors.New("db down")}
	notifier := &stubNotifier{}
	w := NewRestockWorker(finder, notifier, time.Minute)

	w.run(context.Background())

	assert.Empty(t, notifier.notified)
}

func TestRestockWorkerRun_StopsOnCanceledContext(t *testing.T) {
	finder := &stubFinder{ids: []int{3, 7}}
	notifier := &stubNotifier{}
	w := NewRestockWorker(finder, notifier, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.run(ctx)

	assert.Empty(t, notifier.notified)
}

type stubCleaner struct {
	retention time.Duration
	removed   int64
	err       error
}

func (s *stubCleaner) CleanupNotified(retention time.Duration) (int64, error) {
	s.retention = retention
	return s.removed, s.err
}

func TestCleanupWorkerRun(t *testing.T) {
	cleaner := &stubCleaner{removed: 4}
	w := NewCleanupWorker(cleaner, time.Hour, 30*24*time.Hour)

	w.run()

	assert.Equal(t, 30*24*time.Hour, cleaner.retention)
}

func TestCleanupWorkerStart_StopsOnCancel(t *testing.T) {
	cleaner := &stubCleaner{}
	w := NewCleanupWorker(cleaner, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		require.Fail(t, "worker did not stop after context cancellation")
	}
}
