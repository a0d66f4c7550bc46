// Package calendar bridges appointments to an external calendar service.
// Event sync and meeting links are best-effort: the bridge may legitimately
// return nothing, and callers treat an empty result as "no calendar entry",
// not as a failure.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// EventDetails describes the appointment being synced.
type EventDetails struct {
	Title     string     `json:"title"`
	Start     time.Time  `json:"start"`
	End       *time.Time `json:"end,omitempty"`
	Location  string     `json:"location,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	PatientID string     `json:"patient_id,omitempty"`
}

// Sync is the external calendar collaborator. Both methods may return an
// empty string with a nil error when the bridge has nothing to offer; that
// is not an error condition.
type Sync interface {
	SyncEvent(ctx context.Context, appointmentID string, details EventDetails, providerID string) (string, error)
	CreateMeetingLink(ctx context.Context, appointmentID string, details EventDetails, providerID string) (string, error)
}

// Bridge talks to the calendar bridge service over HTTP.
type Bridge struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewBridge creates a Bridge for the given base URL. An empty token disables
// request authentication.
func NewBridge(baseURL, token string) *Bridge {
	return &Bridge{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type syncRequest struct {
	AppointmentID string       `json:"appointment_id"`
	ProviderID    string       `json:"provider_id"`
	Details       EventDetails `json:"details"`
}

type syncResponse struct {
	EventID    string `json:"event_id,omitempty"`
	MeetingURL string `json:"meeting_url,omitempty"`
}

func (b *Bridge) post(ctx context.Context, path string, req syncRequest) (*syncResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if b.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call calendar bridge: %w", err)
	}
	defer resp.Body.Close()

	// 204 means the bridge declined to produce anything; that is fine.
	if resp.StatusCode == http.StatusNoContent {
		return &syncResponse{}, nil
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("calendar bridge returned %d: %s", resp.StatusCode, snippet)
	}

	var out syncResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// SyncEvent asks the bridge to mirror the appointment into the provider's
// calendar and returns the external event id, if one was created.
func (b *Bridge) SyncEvent(ctx context.Context, appointmentID string, details EventDetails, providerID string) (string, error) {
	resp, err := b.post(ctx, "/v1/events", syncRequest{AppointmentID: appointmentID, ProviderID: providerID, Details: details})
	if err != nil {
		return "", err
	}
	return resp.EventID, nil
}

// CreateMeetingLink requests a video meeting link for a remote appointment.
func (b *Bridge) CreateMeetingLink(ctx context.Context, appointmentID string, details EventDetails, providerID string) (string, error) {
	resp, err := b.post(ctx, "/v1/meetings", syncRequest{AppointmentID: appointmentID, ProviderID: providerID, Details: details})
	if err != nil {
		return "", err
	}
	return resp.MeetingURL, nil
}

// Noop is used when no calendar bridge is configured.
type Noop struct{}

func (Noop) SyncEvent(context.Context, string, EventDetails, string) (string, error) {
	return "", nil
}

func (Noop) CreateMeetingLink(context.Context, string, EventDetails, string) (string, error) {
	return "", nil
}

// SyncCall records one call made to a Mock.
type SyncCall struct {
	Method        string
	AppointmentID string
	ProviderID    string
	Details       EventDetails
}

// Mock is a recording test double for Sync.
type Mock struct {
	mu         sync.Mutex
	calls      []SyncCall
	EventID    string
	MeetingURL string
	Err        error
}

func (m *Mock) SyncEvent(_ context.Context, appointmentID string, details EventDetails, providerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, SyncCall{Method: "SyncEvent", AppointmentID: appointmentID, ProviderID: providerID, Details: details})
	return m.EventID, m.Err
}

func (m *Mock) CreateMeetingLink(_ context.Context, appointmentID string, details EventDetails, providerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, SyncCall{Method: "CreateMeetingLink", AppointmentID: appointmentID, ProviderID: providerID, Details: details})
	return m.MeetingURL, m.Err
}

// Calls returns a copy of the recorded calls.
func (m *Mock) Calls() []SyncCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SyncCall, len(m.calls))
	copy(out, m.calls)
	return out
}
