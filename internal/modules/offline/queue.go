package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"field-service-backend/internal/models"
	"field-service-backend/pkg/utils"

	"go.uber.org/zap"
)

const queuePrefix = "offline:capture:"

// QueueEntry is one buffered service-record capture. The entry id doubles as
// the capture's idempotency key, so replaying a drained entry cannot
// double-apply.
type QueueEntry struct {
	ID            string                `json:"id"`
	QueuedAt      time.Time             `json:"queued_at"`
	AppointmentID string                `json:"appointment_id"`
	TechnicianID  string                `json:"technician_id"`
	Capture       models.CaptureRequest `json:"capture"`
}

// CaptureWriter applies one queued capture against the store. The queue
// itself knows nothing about appointments; the appointments service plugs in
// here.
type CaptureWriter interface {
	WriteCapture(ctx context.Context, entry QueueEntry) error
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	Applied []string // entry ids confirmed written and removed
	Failed  []string // entry ids left in the queue for the next pass
}

// CaptureQueue buffers service-record submissions made while the store is
// unreachable. Entries only leave the queue on confirmed success.
type CaptureQueue struct {
	kv     KVStore
	writer CaptureWriter
	logger *zap.Logger
}

func NewCaptureQueue(kv KVStore, writer CaptureWriter, logger *zap.Logger) *CaptureQueue {
	return &CaptureQueue{kv: kv, writer: writer, logger: logger}
}

// Enqueue buffers a capture locally and returns the entry id. It never fails
// on network state; it exists because the network is down.
func (q *CaptureQueue) Enqueue(ctx context.Context, appointmentID, technicianID string, capture models.CaptureRequest) (string, error) {
	id, err := utils.GenerateSecureToken(16)
	if err != nil {
		return "", fmt.Errorf("queue.Enqueue id: %w", err)
	}

	// The capture's client token survives in the entry so the eventual write
	// lands under the same idempotency key a direct write would have used.
	entry := QueueEntry{
		ID:            id,
		QueuedAt:      time.Now().UTC(),
		AppointmentID: appointmentID,
		TechnicianID:  technicianID,
		Capture:       capture,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("queue.Enqueue marshal: %w", err)
	}
	if err := q.kv.Set(ctx, queuePrefix+id, string(data), 0); err != nil {
		return "", fmt.Errorf("queue.Enqueue set: %w", err)
	}

	q.logger.Info("capture queued offline",
		zap.String("entry_id", id),
		zap.String("appointment_id", appointmentID),
	)
	return id, nil
}

// Pending returns the queued entries in queued order.
func (q *CaptureQueue) Pending(ctx context.Context) ([]QueueEntry, error) {
	keys, err := q.kv.Keys(ctx, queuePrefix)
	if err != nil {
		return nil, fmt.Errorf("queue.Pending keys: %w", err)
	}

	entries := make([]QueueEntry, 0, len(keys))
	for _, key := range keys {
		raw, err := q.kv.Get(ctx, key)
		if err != nil {
			if err == ErrCacheMiss {
				continue // removed between Keys and Get
			}
			return nil, fmt.Errorf("queue.Pending get %s: %w", key, err)
		}
		var entry QueueEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("queue.Pending unmarshal %s: %w", key, err)
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].QueuedAt.Before(entries[j].QueuedAt)
	})
	return entries, nil
}

// Drain replays every queued entry in queued order. A failed entry stays in
// the queue untouched and is retried on the next pass; nothing is silently
// dropped.
func (q *CaptureQueue) Drain(ctx context.Context) (DrainResult, error) {
	entries, err := q.Pending(ctx)
	if err != nil {
		return DrainResult{}, err
	}

	var result DrainResult
	for _, entry := range entries {
		if err := q.writer.WriteCapture(ctx, entry); err != nil {
			q.logger.Warn("drain attempt failed, keeping entry",
				zap.String("entry_id", entry.ID),
				zap.Error(err),
			)
			result.Failed = append(result.Failed, entry.ID)
			continue
		}
		if err := q.kv.Delete(ctx, queuePrefix+entry.ID); err != nil {
			// The write succeeded; the entry will replay next pass and the
			// idempotency key makes that replay a no-op.
			q.logger.Warn("failed to remove drained entry",
				zap.String("entry_id", entry.ID),
				zap.Error(err),
			)
			result.Failed = append(result.Failed, entry.ID)
			continue
		}
		q.logger.Info("queued capture applied", zap.String("entry_id", entry.ID))
		result.Applied = append(result.Applied, entry.ID)
	}
	return result, nil
}
