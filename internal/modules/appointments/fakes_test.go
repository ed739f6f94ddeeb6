package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"field-service-backend/internal/models"
	"field-service-backend/pkg/calendar"
	"field-service-backend/pkg/notify"
)

// fakeRepo is an in-memory RepositoryInterface. Individual write paths can be
// made to fail to exercise partial-write and offline behavior.
type fakeRepo struct {
	mu sync.Mutex

	appts    map[string]*models.Appointment
	records  map[string]*models.ServiceRecord
	contacts map[string][2]string // customer id -> (name, email)

	creates         int
	failCreateAfter int // Create fails once this many inserts succeeded; 0 disables
	updates         int
	failUpdateAfter int
	insertRecordErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		appts:    make(map[string]*models.Appointment),
		records:  make(map[string]*models.ServiceRecord),
		contacts: make(map[string][2]string),
	}
}

func (f *fakeRepo) put(a *models.Appointment) {
	c := *a
	f.appts[a.ID] = &c
}

func (f *fakeRepo) Create(ctx context.Context, appt *models.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateAfter > 0 && f.creates >= f.failCreateAfter {
		return models.ErrRemoteUnavailable
	}
	f.creates++
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt
	f.put(appt)
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (f *fakeRepo) FindByIDs(ctx context.Context, ids []string) ([]*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Appointment
	for _, id := range ids {
		if a, ok := f.appts[id]; ok {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListSeries(ctx context.Context, parentID string, from *time.Time) ([]*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Appointment
	for _, a := range f.appts {
		if !a.RecurringParentID.Valid || a.RecurringParentID.String != parentID {
			continue
		}
		if from != nil && (!a.Date.Valid || a.Date.Time.Before(*from)) {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Time.Before(out[j].Date.Time) })
	return out, nil
}

func (f *fakeRepo) ListForCustomersOnDate(ctx context.Context, date time.Time, customerIDs []string) ([]*models.Appointment, error) {
	return nil, nil
}

func (f *fakeRepo) ListForTechnicianOnDate(ctx context.Context, technicianID string, date time.Time) ([]*models.Appointment, error) {
	return nil, nil
}

func (f *fakeRepo) UpdateFields(ctx context.Context, id string, req models.UpdateAppointmentRequest) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdateAfter > 0 && f.updates >= f.failUpdateAfter {
		return nil, models.ErrRemoteUnavailable
	}
	a, ok := f.appts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	f.updates++
	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, err
		}
		a.Date.Time = date
		a.Date.Valid = true
	}
	if req.Time != nil {
		a.Time.String = *req.Time
		a.Time.Valid = true
	}
	if req.ServiceType != nil {
		a.ServiceType = *req.ServiceType
	}
	if req.Notes != nil {
		a.Notes = *req.Notes
	}
	a.UpdatedAt = time.Now()
	c := *a
	return &c, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.appts[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.appts, id)
	return nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return models.ErrNotFound
	}
	a.Status = status
	return nil
}

func (f *fakeRepo) SetSchedule(ctx context.Context, id string, date time.Time, timeOfDay string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return models.ErrNotFound
	}
	a.Date.Time = date
	a.Date.Valid = true
	a.Time.String = timeOfDay
	a.Time.Valid = true
	a.Status = models.StatusScheduled
	return nil
}

func (f *fakeRepo) SetExternalEventID(ctx context.Context, id, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return models.ErrNotFound
	}
	a.ExternalEventID.String = eventID
	a.ExternalEventID.Valid = true
	return nil
}

func (f *fakeRepo) InsertServiceRecord(ctx context.Context, rec *models.ServiceRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertRecordErr != nil {
		return false, f.insertRecordErr
	}
	if _, exists := f.records[rec.ID]; exists {
		return false, nil
	}
	c := *rec
	c.CreatedAt = time.Now()
	f.records[rec.ID] = &c
	return true, nil
}

func (f *fakeRepo) CustomerContact(ctx context.Context, customerID string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	contact, ok := f.contacts[customerID]
	if !ok {
		return "", "", models.ErrNotFound
	}
	return contact[0], contact[1], nil
}

// fakeNotifier records sent messages and signals each delivery, so tests can
// wait for the detached notification goroutine.
type fakeNotifier struct {
	mu        sync.Mutex
	delivered chan struct{}
	sent      []string // recipients in send order
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{delivered: make(chan struct{}, 8)}
}

func (f *fakeNotifier) Notify(ctx context.Context, recipient string, msg notify.Message) error {
	f.mu.Lock()
	f.sent = append(f.sent, recipient)
	f.mu.Unlock()
	f.delivered <- struct{}{}
	return nil
}

func (f *fakeNotifier) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

// fakeCalendarSync assigns deterministic event ids; appointment ids listed in
// fail come back with an error instead.
type fakeCalendarSync struct {
	fail map[string]error
}

func (f *fakeCalendarSync) SyncAppointments(ctx context.Context, creds calendar.ProviderCredentials, appts []*models.Appointment) []calendar.SyncResult {
	results := make([]calendar.SyncResult, len(appts))
	for i, a := range appts {
		results[i].AppointmentID = a.ID
		if err, ok := f.fail[a.ID]; ok {
			results[i].Err = err
			continue
		}
		results[i].ExternalEventID = "evt-" + a.ID
	}
	return results
}
