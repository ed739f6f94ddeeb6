package offline

import (
	"context"
	"encoding/json"
	"fmt"

	"field-service-backend/internal/models"

	"go.uber.org/zap"
)

// ItineraryCache keeps the last-known-good assembled itinerary per
// (technician, date). The assembler writes it on every successful fetch and
// reads it back when the store is unreachable.
type ItineraryCache struct {
	kv     KVStore
	logger *zap.Logger
}

func NewItineraryCache(kv KVStore, logger *zap.Logger) *ItineraryCache {
	return &ItineraryCache{kv: kv, logger: logger}
}

func itineraryKey(technicianID, date string) string {
	return fmt.Sprintf("itinerary:%s:%s", technicianID, date)
}

// Save overwrites the cached itinerary for the key. Entries do not expire;
// a fresh successful fetch is the only thing that replaces them.
func (c *ItineraryCache) Save(ctx context.Context, technicianID, date string, appts []*models.Appointment) error {
	data, err := json.Marshal(appts)
	if err != nil {
		return fmt.Errorf("itinerary cache marshal: %w", err)
	}
	if err := c.kv.Set(ctx, itineraryKey(technicianID, date), string(data), 0); err != nil {
		return fmt.Errorf("itinerary cache set: %w", err)
	}
	c.logger.Debug("itinerary cached",
		zap.String("technician_id", technicianID),
		zap.String("date", date),
		zap.Int("appointments", len(appts)),
	)
	return nil
}

// Load returns the cached itinerary, or ErrCacheMiss when none exists.
func (c *ItineraryCache) Load(ctx context.Context, technicianID, date string) ([]*models.Appointment, error) {
	raw, err := c.kv.Get(ctx, itineraryKey(technicianID, date))
	if err != nil {
		return nil, err
	}
	var appts []*models.Appointment
	if err := json.Unmarshal([]byte(raw), &appts); err != nil {
		return nil, fmt.Errorf("itinerary cache unmarshal: %w", err)
	}
	return appts, nil
}
