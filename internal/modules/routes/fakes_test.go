package routes

import (
	"context"
	"sort"
	"sync"
	"time"

	"field-service-backend/internal/models"
)

// fakeRouteRepo is an in-memory RepositoryInterface. Individual methods can
// be made to fail to drive the error paths.
type fakeRouteRepo struct {
	mu sync.Mutex

	routes    map[string]*models.DailyRoute
	stops     map[string]*models.RouteStop
	crs       map[string]*models.RouteChangeRequest
	assigned  map[string][]string
	addresses map[string]string

	seq     int
	stopSeq map[string]int

	findLatestErr error

	orderWrites    int
	failOrderAfter int // UpdateStopOrder fails once this many writes succeeded; 0 disables
}

func newFakeRouteRepo() *fakeRouteRepo {
	return &fakeRouteRepo{
		routes:    make(map[string]*models.DailyRoute),
		stops:     make(map[string]*models.RouteStop),
		crs:       make(map[string]*models.RouteChangeRequest),
		assigned:  make(map[string][]string),
		addresses: make(map[string]string),
		stopSeq:   make(map[string]int),
	}
}

func copyRoute(r *models.DailyRoute) *models.DailyRoute {
	c := *r
	c.Stops = nil
	return &c
}

func copyStop(s *models.RouteStop) *models.RouteStop {
	c := *s
	return &c
}

func (f *fakeRouteRepo) CreateRoute(ctx context.Context, route *models.DailyRoute) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	route.CreatedAt = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Minute)
	route.UpdatedAt = route.CreatedAt
	f.routes[route.ID] = copyRoute(route)
	return nil
}

func (f *fakeRouteRepo) FindRouteByID(ctx context.Context, id string) (*models.DailyRoute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.routes[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copyRoute(r), nil
}

func (f *fakeRouteRepo) FindLatestByTechnicianAndDate(ctx context.Context, technicianID string, date time.Time) (*models.DailyRoute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findLatestErr != nil {
		return nil, f.findLatestErr
	}
	var latest *models.DailyRoute
	for _, r := range f.routes {
		if r.TechnicianID != technicianID || !sameDay(r.RouteDate, date) {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, models.ErrNotFound
	}
	return copyRoute(latest), nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func (f *fakeRouteRepo) DeleteRoute(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.routes[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.routes, id)
	for stopID, s := range f.stops {
		if s.RouteID == id {
			delete(f.stops, stopID)
		}
	}
	return nil
}

func (f *fakeRouteRepo) ApproveRoute(ctx context.Context, id, approverID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.routes[id]
	if !ok {
		return models.ErrNotFound
	}
	if r.Status != models.RoutePending {
		return models.ErrRouteAlreadyApproved
	}
	r.Status = models.RouteApproved
	r.ApprovedBy.String = approverID
	r.ApprovedBy.Valid = true
	r.ApprovedAt.Time = time.Now()
	r.ApprovedAt.Valid = true
	return nil
}

func (f *fakeRouteRepo) ListStops(ctx context.Context, routeID string) ([]*models.RouteStop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stops []*models.RouteStop
	for _, s := range f.stops {
		if s.RouteID == routeID {
			stops = append(stops, copyStop(s))
		}
	}
	sort.Slice(stops, func(i, j int) bool {
		if stops[i].StopOrder != stops[j].StopOrder {
			return stops[i].StopOrder < stops[j].StopOrder
		}
		return f.stopSeq[stops[i].ID] < f.stopSeq[stops[j].ID]
	})
	return stops, nil
}

func (f *fakeRouteRepo) FindStop(ctx context.Context, stopID string) (*models.RouteStop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stops[stopID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copyStop(s), nil
}

func (f *fakeRouteRepo) InsertStop(ctx context.Context, stop *models.RouteStop) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.stopSeq[stop.ID] = f.seq
	f.stops[stop.ID] = copyStop(stop)
	return nil
}

func (f *fakeRouteRepo) DeleteStop(ctx context.Context, routeID, stopID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stops[stopID]
	if !ok || s.RouteID != routeID {
		return models.ErrNotFound
	}
	delete(f.stops, stopID)
	return nil
}

func (f *fakeRouteRepo) UpdateStopOrder(ctx context.Context, stopID string, order int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOrderAfter > 0 && f.orderWrites >= f.failOrderAfter {
		return models.ErrRemoteUnavailable
	}
	s, ok := f.stops[stopID]
	if !ok {
		return models.ErrNotFound
	}
	s.StopOrder = order
	f.orderWrites++
	return nil
}

func (f *fakeRouteRepo) UpdateStopProgress(ctx context.Context, stopID string, req models.StopProgressRequest) (*models.RouteStop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stops[stopID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if req.Status != "" {
		s.Status = req.Status
	}
	if req.Arrival != nil {
		s.ActualArrivalTime.Time = *req.Arrival
		s.ActualArrivalTime.Valid = true
	}
	if req.Departure != nil {
		s.ActualDepartureTime.Time = *req.Departure
		s.ActualDepartureTime.Valid = true
	}
	if req.Notes != nil {
		s.Notes = *req.Notes
	}
	return copyStop(s), nil
}

func (f *fakeRouteRepo) AppointmentOnActiveRoute(ctx context.Context, appointmentID, excludeRouteID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.stops {
		if s.AppointmentID.Valid && s.AppointmentID.String == appointmentID && s.RouteID != excludeRouteID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRouteRepo) CreateChangeRequest(ctx context.Context, cr *models.RouteChangeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cr.CreatedAt = time.Now()
	c := *cr
	f.crs[cr.ID] = &c
	return nil
}

func (f *fakeRouteRepo) FindChangeRequest(ctx context.Context, id string) (*models.RouteChangeRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cr, ok := f.crs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *cr
	return &c, nil
}

func (f *fakeRouteRepo) ListChangeRequests(ctx context.Context, routeID string) ([]*models.RouteChangeRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var crs []*models.RouteChangeRequest
	for _, cr := range f.crs {
		if cr.RouteID == routeID {
			c := *cr
			crs = append(crs, &c)
		}
	}
	sort.Slice(crs, func(i, j int) bool { return crs[i].CreatedAt.After(crs[j].CreatedAt) })
	return crs, nil
}

func (f *fakeRouteRepo) ReviewChangeRequest(ctx context.Context, id, reviewerID string, status models.ChangeRequestStatus, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cr, ok := f.crs[id]
	if !ok {
		return models.ErrNotFound
	}
	if cr.Status != models.ChangePending {
		return models.ErrChangeRequestReviewed
	}
	cr.Status = status
	cr.ReviewedBy.String = reviewerID
	cr.ReviewedBy.Valid = true
	cr.ReviewedAt.Time = time.Now()
	cr.ReviewedAt.Valid = true
	cr.ReviewNotes.String = notes
	cr.ReviewNotes.Valid = notes != ""
	return nil
}

func (f *fakeRouteRepo) ListAssignedCustomerIDs(ctx context.Context, technicianID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.assigned[technicianID]...), nil
}

func (f *fakeRouteRepo) CustomerAddresses(ctx context.Context, customerIDs []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	addrs := make(map[string]string)
	for _, id := range customerIDs {
		if a, ok := f.addresses[id]; ok {
			addrs[id] = a
		}
	}
	return addrs, nil
}

// fakeAppointmentReader serves the assembler's appointment lookups from a
// fixed set. FindByIDs deliberately returns rows in reverse request order to
// prove callers do not depend on store ordering.
type fakeAppointmentReader struct {
	appts map[string]*models.Appointment
}

func newFakeAppointmentReader(appts ...*models.Appointment) *fakeAppointmentReader {
	m := make(map[string]*models.Appointment, len(appts))
	for _, a := range appts {
		m[a.ID] = a
	}
	return &fakeAppointmentReader{appts: m}
}

func (f *fakeAppointmentReader) FindByIDs(ctx context.Context, ids []string) ([]*models.Appointment, error) {
	var out []*models.Appointment
	for i := len(ids) - 1; i >= 0; i-- {
		if a, ok := f.appts[ids[i]]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentReader) ListForCustomersOnDate(ctx context.Context, date time.Time, customerIDs []string) ([]*models.Appointment, error) {
	want := make(map[string]bool, len(customerIDs))
	for _, id := range customerIDs {
		want[id] = true
	}
	var out []*models.Appointment
	for _, a := range f.appts {
		if a.CustomerID.Valid && want[a.CustomerID.String] && a.Date.Valid && sameDay(a.Date.Time, date) {
			out = append(out, a)
		}
	}
	sortByTime(out)
	return out, nil
}

func (f *fakeAppointmentReader) ListForTechnicianOnDate(ctx context.Context, technicianID string, date time.Time) ([]*models.Appointment, error) {
	var out []*models.Appointment
	for _, a := range f.appts {
		if a.TechnicianID.Valid && a.TechnicianID.String == technicianID && a.Date.Valid && sameDay(a.Date.Time, date) {
			out = append(out, a)
		}
	}
	sortByTime(out)
	return out, nil
}

func sortByTime(appts []*models.Appointment) {
	sort.Slice(appts, func(i, j int) bool {
		return appts[i].Time.String < appts[j].Time.String
	})
}
