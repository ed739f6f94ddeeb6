package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"field-service-backend/internal/models"
)

// RESTClient implements Sync against a Google-Calendar-style events API:
// POST {baseURL}/calendars/{calendarID}/events with a bearer token.
type RESTClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewRESTClient creates a calendar client. baseURL is the provider API root,
// e.g. "https://www.googleapis.com/calendar/v3".
func NewRESTClient(baseURL string) *RESTClient {
	return &RESTClient{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// eventRequest is the minimal provider event body we send.
type eventRequest struct {
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Start       struct {
		Date string `json:"date"`
	} `json:"start"`
	End struct {
		Date string `json:"date"`
	} `json:"end"`
}

// eventResponse is the part of the provider response we care about.
type eventResponse struct {
	ID string `json:"id"`
}

// SyncAppointments creates one provider event per appointment. Unscheduled
// appointments are skipped with an error result; the batch keeps going.
func (c *RESTClient) SyncAppointments(ctx context.Context, creds ProviderCredentials, appts []*models.Appointment) []SyncResult {
	calendarID := creds.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}

	results := make([]SyncResult, 0, len(appts))
	for _, appt := range appts {
		eventID, err := c.createEvent(ctx, creds.AccessToken, calendarID, appt)
		results = append(results, SyncResult{
			AppointmentID:   appt.ID,
			ExternalEventID: eventID,
			Err:             err,
		})
	}
	return results
}

func (c *RESTClient) createEvent(ctx context.Context, token, calendarID string, appt *models.Appointment) (string, error) {
	if !appt.Date.Valid {
		return "", fmt.Errorf("appointment %s has no date", appt.ID)
	}

	var ev eventRequest
	ev.Summary = appt.ServiceType
	ev.Description = appt.Notes
	day := appt.Date.Time.Format("2006-01-02")
	ev.Start.Date = day
	ev.End.Date = day

	payload, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("calendar.createEvent marshal: %w", err)
	}

	url := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, calendarID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("calendar.createEvent build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calendar.createEvent call provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("calendar.createEvent read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("calendar.createEvent: provider returned %d", resp.StatusCode)
	}

	var created eventResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("calendar.createEvent unmarshal: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("calendar.createEvent: provider returned no event id")
	}
	return created.ID, nil
}
