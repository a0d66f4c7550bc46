package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrSlotTaken is returned when a booking's time is already occupied for the
// provider at insert time.
var ErrSlotTaken = errors.New("requested time is no longer available")

// Availability is one availability answer for a provider and date.
type Availability struct {
	Date       string     `json:"date"`
	ProviderID uuid.UUID  `json:"provider_id"`
	Slots      []string   `json:"slots"`
	Busy       []BusySlot `json:"busy"`
	WorkingDay bool       `json:"working_day"`
}

type Service struct {
	repo         Repository
	defaultHours Hours
	interval     int
	now          func() time.Time
}

func NewService(repo Repository, defaultHours Hours, intervalMinutes int) *Service {
	return &Service{
		repo:         repo,
		defaultHours: defaultHours,
		interval:     intervalMinutes,
		now:          time.Now,
	}
}

// SetClock overrides the service's notion of "now". Used by tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// busyFor derives the provider's busy slots for a date from non-cancelled
// appointments, skipping excludeAppt (the appointment currently being
// edited), then merges in any externally supplied busy times.
func (s *Service) busyFor(ctx context.Context, providerID uuid.UUID, date time.Time, excludeAppt uuid.UUID, extra []BusySlot) ([]BusySlot, error) {
	appts, err := s.repo.ListByProviderAndDate(ctx, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	var booked []BusySlot
	for _, a := range appts {
		if excludeAppt != uuid.Nil && a.ID == excludeAppt {
			continue
		}
		booked = append(booked, BusySlot{Time: a.StartTime, Reason: "booked"})
	}

	return MergeBusySlots(booked, extra), nil
}

// AvailableSlots answers "which times can be offered for this provider on
// this date". intervalMinutes of 0 uses the configured default interval.
func (s *Service) AvailableSlots(ctx context.Context, providerID uuid.UUID, date time.Time, intervalMinutes int, excludeAppt uuid.UUID, extraBusy []BusySlot) (*Availability, error) {
	if intervalMinutes <= 0 {
		intervalMinutes = s.interval
	}

	windows, err := s.repo.ListWindowsByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	slots := GenerateSlots(date, intervalMinutes, windows, s.defaultHours)
	busy, err := s.busyFor(ctx, providerID, date, excludeAppt, extraBusy)
	if err != nil {
		return nil, err
	}

	return &Availability{
		Date:       dateOnly(date).Format("2006-01-02"),
		ProviderID: providerID,
		Slots:      slots,
		Busy:       busy,
		WorkingDay: len(slots) > 0,
	}, nil
}

// DisabledDays evaluates the day predicate over a horizon of days starting at
// from, returning the unselectable dates as "YYYY-MM-DD" strings.
func (s *Service) DisabledDays(ctx context.Context, providerID uuid.UUID, from time.Time, horizonDays int) ([]string, error) {
	windows, err := s.repo.ListWindowsByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	today := s.now()
	var disabled []string
	for i := 0; i < horizonDays; i++ {
		d := dateOnly(from).AddDate(0, 0, i)
		if DayDisabled(d, today, windows) {
			disabled = append(disabled, d.Format("2006-01-02"))
		}
	}
	return disabled, nil
}

// BookFollowUp inserts a follow-up appointment after re-checking that its
// time is still free for the provider. Slot advice shown earlier in the UI
// is only advisory; this is the authoritative check.
func (s *Service) BookFollowUp(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.StartTime == "" {
		return fmt.Errorf("start_time is required")
	}
	if _, err := parseClock(a.StartTime); err != nil {
		return err
	}

	if a.ProviderID != nil {
		busy, err := s.busyFor(ctx, *a.ProviderID, a.Date, uuid.Nil, nil)
		if err != nil {
			return err
		}
		for _, b := range busy {
			if b.Time == a.StartTime {
				return fmt.Errorf("%w: %s at %s", ErrSlotTaken, a.Date.Format("2006-01-02"), a.StartTime)
			}
		}
	}

	return s.repo.CreateAppointment(ctx, a)
}

// Get returns one appointment.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointment(ctx, id)
}

// Update patches an appointment's mutable fields.
func (s *Service) Update(ctx context.Context, a *Appointment) error {
	return s.repo.UpdateAppointment(ctx, a)
}

// FindByPatientAndDate returns the patient's non-cancelled appointment on the
// date, or nil when none exists.
func (s *Service) FindByPatientAndDate(ctx context.Context, patientID uuid.UUID, date time.Time) (*Appointment, error) {
	return s.repo.FindByPatientAndDate(ctx, patientID, date)
}

// SetCalendarEventID stores the external calendar event id on an appointment.
func (s *Service) SetCalendarEventID(ctx context.Context, id uuid.UUID, eventID string) error {
	return s.repo.SetCalendarEventID(ctx, id, eventID)
}

// SetMeetingURL stores the meeting link on an appointment.
func (s *Service) SetMeetingURL(ctx context.Context, id uuid.UUID, url string) error {
	return s.repo.SetMeetingURL(ctx, id, url)
}
