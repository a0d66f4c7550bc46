// Package notification dispatches appointment lifecycle notifications. The
// dispatch is fire-and-forget: the saga records a warning when dispatch
// fails but never requires delivery confirmation.
package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Trigger is the appointment lifecycle event being announced.
type Trigger string

const (
	TriggerCreated   Trigger = "created"
	TriggerConfirmed Trigger = "confirmed"
	TriggerUpdated   Trigger = "updated"
	TriggerCancelled Trigger = "cancelled"
)

// ValidTrigger reports whether t is a known trigger.
func ValidTrigger(t Trigger) bool {
	switch t {
	case TriggerCreated, TriggerConfirmed, TriggerUpdated, TriggerCancelled:
		return true
	}
	return false
}

// Dispatcher is the outbound notification collaborator.
type Dispatcher interface {
	Notify(ctx context.Context, appointmentID string, trigger Trigger, data map[string]string) error
}

// Sender delivers a rendered message. Concrete senders (email, SMS, LINE)
// live outside this subsystem; tests use the mock below.
type Sender interface {
	Send(ctx context.Context, subject, body string) error
}

// LogSender writes rendered messages to the log. It is the sender of record
// until a real delivery channel is configured.
type LogSender struct {
	Logger zerolog.Logger
}

func (s LogSender) Send(_ context.Context, subject, body string) error {
	s.Logger.Info().Str("subject", subject).Str("body", body).Msg("notification dispatched")
	return nil
}

// Template is a reusable notification template keyed by trigger.
type Template struct {
	Trigger Trigger
	Subject string
	Body    string
}

// TemplateEngine renders trigger templates with {{key}} substitution.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[Trigger]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in appointment
// templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[Trigger]*Template)}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			Trigger: TriggerCreated,
			Subject: "Appointment booked for {{date}}",
			Body:    "Your appointment on {{date}} at {{time}} with {{provider}} has been booked.{{meeting_line}}",
		},
		{
			Trigger: TriggerConfirmed,
			Subject: "Appointment confirmed",
			Body:    "Your appointment on {{date}} at {{time}} is confirmed.",
		},
		{
			Trigger: TriggerUpdated,
			Subject: "Appointment updated",
			Body:    "Your appointment has been moved to {{date}} at {{time}}.",
		},
		{
			Trigger: TriggerCancelled,
			Subject: "Appointment cancelled",
			Body:    "Your appointment on {{date}} has been cancelled.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.Trigger] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.Trigger] = &t
}

// Render looks up the template for a trigger and performs {{key}} replacement
// using the supplied data map. Keys present in the template but absent from
// data are replaced with the empty string.
func (e *TemplateEngine) Render(trigger Trigger, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[trigger]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("no template for trigger %q", trigger)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	// Drop any placeholders the caller did not fill.
	subject = stripPlaceholders(subject)
	body = stripPlaceholders(body)
	return subject, body, nil
}

func stripPlaceholders(s string) string {
	for {
		start := strings.Index(s, "{{")
		if start < 0 {
			return s
		}
		end := strings.Index(s[start:], "}}")
		if end < 0 {
			return s
		}
		s = s[:start] + s[start+end+2:]
	}
}

// Record is one dispatched notification, kept for inspection.
type Record struct {
	AppointmentID string    `json:"appointment_id"`
	Trigger       Trigger   `json:"trigger"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	SentAt        time.Time `json:"sent_at"`
	Error         string    `json:"error,omitempty"`
}

// Manager renders and sends appointment notifications.
type Manager struct {
	sender    Sender
	templates *TemplateEngine
	mu        sync.Mutex
	history   []Record
}

// NewManager constructs a Manager.
func NewManager(sender Sender, tpl *TemplateEngine) *Manager {
	return &Manager{sender: sender, templates: tpl}
}

// Notify renders the trigger template and hands the message to the sender.
func (m *Manager) Notify(ctx context.Context, appointmentID string, trigger Trigger, data map[string]string) error {
	if !ValidTrigger(trigger) {
		return fmt.Errorf("invalid trigger: %s", trigger)
	}

	subject, body, err := m.templates.Render(trigger, data)
	if err != nil {
		return err
	}

	rec := Record{
		AppointmentID: appointmentID,
		Trigger:       trigger,
		Subject:       subject,
		Body:          body,
		SentAt:        time.Now().UTC(),
	}

	sendErr := m.sender.Send(ctx, subject, body)
	if sendErr != nil {
		rec.Error = sendErr.Error()
	}

	m.mu.Lock()
	m.history = append(m.history, rec)
	m.mu.Unlock()

	return sendErr
}

// History returns a copy of the dispatch history.
func (m *Manager) History() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.history))
	copy(out, m.history)
	return out
}

// SendCall records a single call to a MockSender.
type SendCall struct {
	Subject string
	Body    string
}

// MockSender is a test double for Sender.
type MockSender struct {
	mu         sync.Mutex
	calls      []SendCall
	ShouldFail bool
	FailError  string
}

// Send records the call and optionally returns an error.
func (m *MockSender) Send(_ context.Context, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, SendCall{Subject: subject, Body: body})
	if m.ShouldFail {
		return fmt.Errorf("%s", m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded send calls.
func (m *MockSender) Calls() []SendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SendCall, len(m.calls))
	copy(out, m.calls)
	return out
}
