package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBridge_SyncEvent(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		var req syncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.AppointmentID != "appt-1" || req.ProviderID != "prov-1" {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(syncResponse{EventID: "evt-42"})
	}))
	defer srv.Close()

	b := NewBridge(srv.URL, "secret-token")
	id, err := b.SyncEvent(context.Background(), "appt-1", EventDetails{Title: "Follow-up", Start: time.Now()}, "prov-1")
	if err != nil {
		t.Fatalf("SyncEvent error: %v", err)
	}
	if id != "evt-42" {
		t.Errorf("expected event id evt-42, got %q", id)
	}
	if gotPath != "/v1/events" {
		t.Errorf("expected path /v1/events, got %s", gotPath)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}
}

func TestBridge_NoContentMeansAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	b := NewBridge(srv.URL, "")
	id, err := b.SyncEvent(context.Background(), "appt-1", EventDetails{}, "prov-1")
	if err != nil {
		t.Fatalf("expected absent result without error, got %v", err)
	}
	if id != "" {
		t.Errorf("expected empty event id, got %q", id)
	}
}

func TestBridge_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := NewBridge(srv.URL, "")
	if _, err := b.CreateMeetingLink(context.Background(), "appt-1", EventDetails{}, "prov-1"); err == nil {
		t.Error("expected error on 500 response")
	}
}

func TestMock_Records(t *testing.T) {
	m := &Mock{EventID: "evt-1", MeetingURL: "https://meet.example/x"}

	if _, err := m.SyncEvent(context.Background(), "a1", EventDetails{Title: "t"}, "p1"); err != nil {
		t.Fatalf("SyncEvent error: %v", err)
	}
	link, err := m.CreateMeetingLink(context.Background(), "a1", EventDetails{}, "p1")
	if err != nil {
		t.Fatalf("CreateMeetingLink error: %v", err)
	}
	if link != "https://meet.example/x" {
		t.Errorf("unexpected link %q", link)
	}

	calls := m.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Method != "SyncEvent" || calls[1].Method != "CreateMeetingLink" {
		t.Errorf("unexpected call order: %+v", calls)
	}
}
