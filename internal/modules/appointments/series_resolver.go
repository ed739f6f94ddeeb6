package appointments

import (
	"context"
	"fmt"

	"field-service-backend/internal/models"
)

// SeriesResolver computes the exact set of appointments a cascading edit or
// delete must touch. Update and delete share it, so their semantics can
// never diverge.
type SeriesResolver struct {
	repo RepositoryInterface
}

func NewSeriesResolver(repo RepositoryInterface) *SeriesResolver {
	return &SeriesResolver{repo: repo}
}

// ResolveScope expands an appointment and a scope into the affected set.
// An empty scope means 'single'. Non-'single' scopes require a recurring
// appointment. The series is a flat group keyed by the root's id, so every
// scope resolves with a single query rather than a traversal.
func (sr *SeriesResolver) ResolveScope(ctx context.Context, appt *models.Appointment, scope models.EditScope) ([]*models.Appointment, error) {
	if scope == "" {
		scope = models.ScopeSingle
	}

	switch scope {
	case models.ScopeSingle:
		return []*models.Appointment{appt}, nil

	case models.ScopeFuture:
		if !appt.IsRecurring {
			return nil, models.ErrInvalidScope
		}
		if !appt.Date.Valid {
			return nil, fmt.Errorf("%w: appointment has no date", models.ErrInvalidScope)
		}
		from := appt.Date.Time
		siblings, err := sr.repo.ListSeries(ctx, appt.SeriesRootID(), &from)
		if err != nil {
			return nil, fmt.Errorf("resolver.ResolveScope future: %w", err)
		}
		return dedupe(appt, siblings), nil

	case models.ScopeAll:
		if !appt.IsRecurring {
			return nil, models.ErrInvalidScope
		}
		parentID := appt.SeriesRootID()
		parent := appt
		if parentID != appt.ID {
			var err error
			parent, err = sr.repo.FindByID(ctx, parentID)
			if err != nil {
				return nil, fmt.Errorf("resolver.ResolveScope all: %w", err)
			}
		}
		children, err := sr.repo.ListSeries(ctx, parentID, nil)
		if err != nil {
			return nil, fmt.Errorf("resolver.ResolveScope all: %w", err)
		}
		return dedupe(parent, children), nil

	default:
		return nil, models.ErrInvalidScope
	}
}

// dedupe prepends first to rest, dropping any duplicate of first by id.
func dedupe(first *models.Appointment, rest []*models.Appointment) []*models.Appointment {
	out := []*models.Appointment{first}
	for _, a := range rest {
		if a.ID != first.ID {
			out = append(out, a)
		}
	}
	return out
}
