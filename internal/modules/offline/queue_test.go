package offline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"field-service-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeCaptureWriter records every replayed entry; err makes writes fail.
type fakeCaptureWriter struct {
	mu      sync.Mutex
	err     error
	got     []QueueEntry
	applied chan struct{}
}

func newFakeCaptureWriter() *fakeCaptureWriter {
	return &fakeCaptureWriter{applied: make(chan struct{}, 16)}
}

func (w *fakeCaptureWriter) WriteCapture(ctx context.Context, entry QueueEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.got = append(w.got, entry)
	w.applied <- struct{}{}
	return nil
}

func (w *fakeCaptureWriter) setErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}

func (w *fakeCaptureWriter) entries() []QueueEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]QueueEntry(nil), w.got...)
}

// failingDeleteKV makes Delete fail while everything else works, to simulate
// losing the store between applying an entry and removing it.
type failingDeleteKV struct {
	KVStore
	fail bool
}

func (f *failingDeleteKV) Delete(ctx context.Context, key string) error {
	if f.fail {
		return errors.New("kv: connection lost")
	}
	return f.KVStore.Delete(ctx, key)
}

func testCapture(token string) models.CaptureRequest {
	return models.CaptureRequest{
		ClientToken:   token,
		WorkPerformed: "filter change",
		CompletedAt:   time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC),
	}
}

func TestEnqueuePreservesOrder(t *testing.T) {
	kv := NewMemoryKVStore()
	q := NewCaptureQueue(kv, newFakeCaptureWriter(), zap.NewNop())

	for _, appt := range []string{"a1", "a2", "a3"} {
		_, err := q.Enqueue(context.Background(), appt, "tech-1", testCapture("token-"+appt+"-0123456789"))
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	pending, err := q.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "a1", pending[0].AppointmentID)
	assert.Equal(t, "a2", pending[1].AppointmentID)
	assert.Equal(t, "a3", pending[2].AppointmentID)
}

func TestDrainAppliesAndRemoves(t *testing.T) {
	kv := NewMemoryKVStore()
	writer := newFakeCaptureWriter()
	q := NewCaptureQueue(kv, writer, zap.NewNop())

	id, err := q.Enqueue(context.Background(), "a1", "tech-1", testCapture("token-a1-0123456789ab"))
	require.NoError(t, err)

	result, err := q.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{id}, result.Applied)
	assert.Empty(t, result.Failed)

	require.Len(t, writer.entries(), 1)
	assert.Equal(t, "a1", writer.entries()[0].AppointmentID)
	assert.Equal(t, 0, kv.Len(), "an applied entry leaves the queue")
}

func TestFailedDrainKeepsEntry(t *testing.T) {
	kv := NewMemoryKVStore()
	writer := newFakeCaptureWriter()
	writer.setErr(models.ErrRemoteUnavailable)
	q := NewCaptureQueue(kv, writer, zap.NewNop())

	id, err := q.Enqueue(context.Background(), "a1", "tech-1", testCapture("token-a1-0123456789ab"))
	require.NoError(t, err)

	result, err := q.Drain(context.Background())
	require.NoError(t, err, "a failed entry is not a failed drain")
	assert.Empty(t, result.Applied)
	assert.Equal(t, []string{id}, result.Failed)
	assert.Equal(t, 1, kv.Len(), "nothing is silently dropped")

	// Connectivity returns; the next pass succeeds.
	writer.setErr(nil)
	result, err = q.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{id}, result.Applied)
	assert.Equal(t, 0, kv.Len())
}

func TestRemovalFailureReplaysUnderSameToken(t *testing.T) {
	mem := NewMemoryKVStore()
	kv := &failingDeleteKV{KVStore: mem, fail: true}
	writer := newFakeCaptureWriter()
	q := NewCaptureQueue(kv, writer, zap.NewNop())

	id, err := q.Enqueue(context.Background(), "a1", "tech-1", testCapture("token-a1-0123456789ab"))
	require.NoError(t, err)

	// The write lands but the entry cannot be removed; it stays queued.
	result, err := q.Drain(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Applied)
	assert.Equal(t, []string{id}, result.Failed)

	kv.fail = false
	result, err = q.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{id}, result.Applied)

	// The capture replayed, both times under the same idempotency key.
	got := writer.entries()
	require.Len(t, got, 2)
	assert.Equal(t, got[0].Capture.ClientToken, got[1].Capture.ClientToken)
}

func TestDrainEmptyQueue(t *testing.T) {
	q := NewCaptureQueue(NewMemoryKVStore(), newFakeCaptureWriter(), zap.NewNop())

	result, err := q.Drain(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Applied)
	assert.Empty(t, result.Failed)
}
