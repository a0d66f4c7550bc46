package treatment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinhq/clinic-api/internal/clinic/billing"
	"github.com/clinhq/clinic-api/internal/clinic/catalog"
	"github.com/clinhq/clinic-api/internal/clinic/prescription"
	"github.com/clinhq/clinic-api/internal/clinic/schedule"
	"github.com/clinhq/clinic-api/internal/platform/blobstore"
	"github.com/clinhq/clinic-api/internal/platform/calendar"
	"github.com/clinhq/clinic-api/internal/platform/middleware"
	"github.com/clinhq/clinic-api/internal/platform/notification"
)

// Warning step names, stable across releases so clients can key on them.
const (
	StepAttachments  = "attachments"
	StepPrescription = "prescription"
	StepBilling      = "billing"
	StepFollowUp     = "follow_up"
	StepCalendar     = "calendar"
	StepNotify       = "notify"
	StepAppointment  = "appointment"
)

// Warning records one advisory step failure. The treatment itself was saved;
// the named step was not completed.
type Warning struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// CreateResult summarizes what one create invocation actually produced.
type CreateResult struct {
	TreatmentID           uuid.UUID  `json:"treatment_id"`
	Prescription          bool       `json:"prescription"`
	Billing               bool       `json:"billing"`
	FollowUpAppointmentID *uuid.UUID `json:"follow_up_appointment_id,omitempty"`
	Warnings              []Warning  `json:"warnings"`
}

// UpdateResult summarizes what one update invocation actually produced.
type UpdateResult struct {
	Prescription          bool       `json:"prescription"`
	Billing               bool       `json:"billing"`
	FollowUpAppointmentID *uuid.UUID `json:"follow_up_appointment_id,omitempty"`
	FollowUpLocked        bool       `json:"follow_up_locked"`
	Warnings              []Warning  `json:"warnings"`
}

// PrescriptionStore reconciles the treatment's single prescription.
type PrescriptionStore interface {
	Upsert(ctx context.Context, treatmentID, patientID uuid.UUID, providerID *uuid.UUID, items []prescription.Item) (*prescription.Prescription, error)
}

// BillingStore persists composed invoices.
type BillingStore interface {
	UpsertForTreatment(ctx context.Context, patientID, treatmentID uuid.UUID, comp billing.Composition) (*billing.Invoice, error)
	CreateForAppointment(ctx context.Context, patientID, appointmentID uuid.UUID, comp billing.Composition) (*billing.Invoice, error)
}

// AppointmentBooker books and patches appointments.
type AppointmentBooker interface {
	BookFollowUp(ctx context.Context, a *schedule.Appointment) error
	FindByPatientAndDate(ctx context.Context, patientID uuid.UUID, date time.Time) (*schedule.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*schedule.Appointment, error)
	Update(ctx context.Context, a *schedule.Appointment) error
	SetCalendarEventID(ctx context.Context, id uuid.UUID, eventID string) error
	SetMeetingURL(ctx context.Context, id uuid.UUID, url string) error
}

// Catalog resolves current medication prices and service definitions.
type Catalog interface {
	MedicationPrice(ctx context.Context, id uuid.UUID) (float64, error)
	Service(ctx context.Context, id uuid.UUID) (*catalog.ClinicService, error)
}

// Deps are the orchestrator's collaborators. All of them are interfaces so
// the saga is testable with in-memory fakes.
type Deps struct {
	Repo          Repository
	Prescriptions PrescriptionStore
	Billing       BillingStore
	Appointments  AppointmentBooker
	Catalog       Catalog
	Files         blobstore.Store
	Calendar      calendar.Sync
	Notifier      notification.Dispatcher
	Logger        zerolog.Logger
}

// Orchestrator runs the encounter save saga: persist the treatment, then
// derive attachments, prescription, billing, and the follow-up appointment
// from the same form. Only the treatment persist is a hard failure; every
// later step is advisory and demoted to a Warning, because the clinician's
// record must survive a flaky downstream collaborator.
type Orchestrator struct {
	deps Deps
}

func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

func (o *Orchestrator) warn(warnings *[]Warning, treatmentID uuid.UUID, step, message string, err error) {
	evt := o.deps.Logger.Warn().Str("step", step).Str("treatment_id", treatmentID.String())
	if err != nil {
		evt = evt.Err(err)
	}
	evt.Msg(message)
	*warnings = append(*warnings, Warning{Step: step, Message: message})
}

// Create persists a new treatment and derives its dependent records.
// Returns an error only when the treatment row itself cannot be saved;
// every downstream failure is reported through the result's warnings.
func (o *Orchestrator) Create(ctx context.Context, actor *middleware.Actor, form *Form) (*CreateResult, error) {
	t := newTreatment(form, actor)
	if err := o.deps.Repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("save treatment: %w", err)
	}

	res := &CreateResult{TreatmentID: t.ID, Warnings: []Warning{}}

	o.uploadAttachments(ctx, t, form.Attachments, &res.Warnings)
	res.Prescription = o.savePrescription(ctx, t, form, &res.Warnings)
	res.FollowUpAppointmentID = o.bookFollowUp(ctx, t, &form.FollowUp, &res.Warnings)
	res.Billing = o.saveTreatmentBilling(ctx, t, form, false, &res.Warnings)

	return res, nil
}

// Update patches an existing treatment and reconciles its dependent records
// with replace semantics. Returns an error only when the treatment cannot be
// loaded or its row cannot be written.
func (o *Orchestrator) Update(ctx context.Context, actor *middleware.Actor, treatmentID uuid.UUID, form *Form) (*UpdateResult, error) {
	t, err := o.deps.Repo.Get(ctx, treatmentID)
	if err != nil {
		return nil, err
	}

	applyForm(t, form, actor)
	if err := o.deps.Repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("save treatment: %w", err)
	}

	res := &UpdateResult{Warnings: []Warning{}}

	o.patchSourceAppointment(ctx, t, form, &res.Warnings)
	o.uploadAttachments(ctx, t, form.Attachments, &res.Warnings)
	res.Prescription = o.savePrescription(ctx, t, form, &res.Warnings)

	if t.FollowUpDate != nil {
		existing, err := o.deps.Appointments.FindByPatientAndDate(ctx, t.PatientID, *t.FollowUpDate)
		switch {
		case err != nil:
			o.warn(&res.Warnings, t.ID, StepFollowUp, "treatment saved, but follow-up lookup failed", err)
		case existing != nil:
			// Already booked from an earlier save. Locked: edits go through
			// the appointment surface, not the encounter screen.
			res.FollowUpLocked = true
			res.FollowUpAppointmentID = &existing.ID
		default:
			res.FollowUpAppointmentID = o.bookFollowUp(ctx, t, &form.FollowUp, &res.Warnings)
		}
	}

	res.Billing = o.saveTreatmentBilling(ctx, t, form, true, &res.Warnings)

	return res, nil
}

// newTreatment builds the row for a create. The actor is the default
// provider when the form leaves the field empty.
func newTreatment(form *Form, actor *middleware.Actor) *Treatment {
	t := &Treatment{
		PatientID:           form.PatientID,
		TreatmentDate:       form.TreatmentDate,
		SourceAppointmentID: form.SourceAppointmentID,
	}
	applyForm(t, form, actor)
	return t
}

func applyForm(t *Treatment, form *Form, actor *middleware.Actor) {
	t.ProviderID = form.ProviderID
	if t.ProviderID == nil && actor != nil {
		if id, err := uuid.Parse(actor.ID); err == nil {
			t.ProviderID = &id
		}
	}
	if !form.TreatmentDate.IsZero() {
		t.TreatmentDate = form.TreatmentDate
	}
	t.Symptoms = form.Symptoms
	t.Diagnosis = form.Diagnosis
	t.Plan = form.Plan
	t.Notes = form.Notes
	t.Vitals = sparseVitals(form.Vitals)
	t.FollowUpDate = form.FollowUp.Date
}

// sparseVitals keeps only measured values; the map stores nothing for
// fields the clinician left blank.
func sparseVitals(vitals map[string]float64) map[string]float64 {
	if len(vitals) == 0 {
		return nil
	}
	return vitals
}

func (o *Orchestrator) uploadAttachments(ctx context.Context, t *Treatment, attachments []Attachment, warnings *[]Warning) {
	for _, a := range attachments {
		url, err := o.deps.Files.Upload(ctx, a.FileName, a.ContentType, a.Data)
		if err != nil {
			o.warn(warnings, t.ID, StepAttachments,
				fmt.Sprintf("treatment saved, but upload of %q failed", a.FileName), err)
			continue
		}
		f := &TreatmentFile{TreatmentID: t.ID, FileName: a.FileName, ContentType: a.ContentType, URL: url}
		if err := o.deps.Repo.AddFile(ctx, f); err != nil {
			o.warn(warnings, t.ID, StepAttachments,
				fmt.Sprintf("treatment saved, but linking of %q failed", a.FileName), err)
		}
	}
}

func (o *Orchestrator) savePrescription(ctx context.Context, t *Treatment, form *Form, warnings *[]Warning) bool {
	lines := form.prescriptionLines()
	if len(lines) == 0 {
		return false
	}

	items := make([]prescription.Item, 0, len(lines))
	for _, m := range lines {
		items = append(items, prescription.Item{
			MedicationID: m.MedicationID,
			Name:         m.Name,
			Dosage:       m.Dosage,
			Frequency:    m.Frequency,
			Duration:     m.Duration,
			Quantity:     m.Quantity,
			Instructions: m.Instructions,
		})
	}

	if _, err := o.deps.Prescriptions.Upsert(ctx, t.ID, t.PatientID, t.ProviderID, items); err != nil {
		o.warn(warnings, t.ID, StepPrescription, "treatment saved, but prescription update failed", err)
		return false
	}
	return true
}

// resolvedService pairs a follow-up service line with its catalog row, when
// the catalog could resolve it.
type resolvedService struct {
	line ServiceLine
	svc  *catalog.ClinicService
}

func (o *Orchestrator) resolveServices(ctx context.Context, t *Treatment, lines []ServiceLine, warnings *[]Warning) []resolvedService {
	out := make([]resolvedService, 0, len(lines))
	for _, line := range lines {
		rs := resolvedService{line: line}
		if line.ServiceID != nil {
			svc, err := o.deps.Catalog.Service(ctx, *line.ServiceID)
			if err != nil {
				o.warn(warnings, t.ID, StepFollowUp,
					fmt.Sprintf("treatment saved, but service %q could not be resolved", line.Name), err)
			} else {
				rs.svc = svc
			}
		}
		out = append(out, rs)
	}
	return out
}

func (rs resolvedService) unitPrice() float64 {
	if rs.svc != nil {
		return rs.svc.Price
	}
	return rs.line.UnitPrice
}

// bookFollowUp runs the follow-up branch: book the appointment, bill its
// services, sync the calendar, and notify. Everything after the appointment
// row exists is advisory; the row is never rolled back. Returns the new
// appointment id, or nil when none was created.
func (o *Orchestrator) bookFollowUp(ctx context.Context, t *Treatment, fu *FollowUpForm, warnings *[]Warning) *uuid.UUID {
	if fu.Date == nil {
		return nil
	}
	if fu.StartTime == "" {
		o.warn(warnings, t.ID, StepFollowUp, "follow-up date set but no time selected; appointment not booked", nil)
		return nil
	}
	if fu.ProviderID == nil {
		o.warn(warnings, t.ID, StepFollowUp, "follow-up date set but no provider selected; appointment not booked", nil)
		return nil
	}

	resolved := o.resolveServices(ctx, t, fu.Services, warnings)

	var endTime *string
	minutes := 0
	for _, rs := range resolved {
		if rs.svc != nil {
			minutes += rs.svc.DurationMinutes * rs.line.Quantity
		}
	}
	if minutes > 0 {
		if end, err := schedule.AddMinutes(fu.StartTime, minutes); err == nil {
			endTime = &end
		}
	}

	appt := &schedule.Appointment{
		PatientID:         t.PatientID,
		ProviderID:        fu.ProviderID,
		Date:              *fu.Date,
		StartTime:         fu.StartTime,
		EndTime:           endTime,
		Type:              fu.Type,
		ChiefComplaint:    fu.ChiefComplaint,
		Location:          fu.Location,
		Notes:             fu.Notes,
		Status:            schedule.StatusBooked,
		SourceTreatmentID: &t.ID,
	}
	if err := o.deps.Appointments.BookFollowUp(ctx, appt); err != nil {
		o.warn(warnings, t.ID, StepFollowUp, "treatment saved, but follow-up appointment could not be booked", err)
		return nil
	}

	o.billFollowUp(ctx, t, appt, resolved, warnings)
	meetingURL := o.syncFollowUpCalendar(ctx, t, appt, resolved, warnings)
	o.notifyFollowUp(ctx, t, appt, meetingURL, warnings)

	return &appt.ID
}

func (o *Orchestrator) billFollowUp(ctx context.Context, t *Treatment, appt *schedule.Appointment, resolved []resolvedService, warnings *[]Warning) {
	selections := make([]billing.ServiceSelection, 0, len(resolved))
	for _, rs := range resolved {
		selections = append(selections, billing.ServiceSelection{
			ServiceID: rs.line.ServiceID,
			Name:      rs.line.Name,
			Quantity:  rs.line.Quantity,
			UnitPrice: rs.unitPrice(),
		})
	}

	comp := billing.Compose(selections, nil, nil)
	if comp.Empty() {
		return
	}
	if _, err := o.deps.Billing.CreateForAppointment(ctx, t.PatientID, appt.ID, comp); err != nil {
		o.warn(warnings, t.ID, StepBilling, "appointment booked, but its billing could not be saved", err)
	}
}

// syncFollowUpCalendar requests an external event id and, for remote
// services, a meeting link. An empty answer from the bridge is not an error.
// Returns the meeting link so the notification can include it.
func (o *Orchestrator) syncFollowUpCalendar(ctx context.Context, t *Treatment, appt *schedule.Appointment, resolved []resolvedService, warnings *[]Warning) string {
	details := eventDetails(appt)
	providerID := appt.ProviderID.String()

	eventID, err := o.deps.Calendar.SyncEvent(ctx, appt.ID.String(), details, providerID)
	if err != nil {
		o.warn(warnings, t.ID, StepCalendar, "appointment booked, but calendar sync failed", err)
	} else if eventID != "" {
		if err := o.deps.Appointments.SetCalendarEventID(ctx, appt.ID, eventID); err != nil {
			o.warn(warnings, t.ID, StepCalendar, "appointment booked, but calendar event id could not be stored", err)
		}
	}

	remote := false
	for _, rs := range resolved {
		if rs.svc != nil && rs.svc.IsRemote() {
			remote = true
			break
		}
	}
	if !remote {
		return ""
	}

	link, err := o.deps.Calendar.CreateMeetingLink(ctx, appt.ID.String(), details, providerID)
	if err != nil {
		o.warn(warnings, t.ID, StepCalendar, "appointment booked, but meeting link could not be created", err)
		return ""
	}
	if link == "" {
		return ""
	}
	if err := o.deps.Appointments.SetMeetingURL(ctx, appt.ID, link); err != nil {
		o.warn(warnings, t.ID, StepCalendar, "appointment booked, but meeting link could not be stored", err)
	}
	return link
}

func (o *Orchestrator) notifyFollowUp(ctx context.Context, t *Treatment, appt *schedule.Appointment, meetingURL string, warnings *[]Warning) {
	data := map[string]string{
		"date": appt.Date.Format("2006-01-02"),
		"time": appt.StartTime,
	}
	if appt.ProviderID != nil {
		data["provider"] = appt.ProviderID.String()
	}
	if meetingURL != "" {
		data["meeting_line"] = "Join online: " + meetingURL
	}
	if err := o.deps.Notifier.Notify(ctx, appt.ID.String(), notification.TriggerCreated, data); err != nil {
		o.warn(warnings, t.ID, StepNotify, "appointment booked, but the notification could not be dispatched", err)
	}
}

func (o *Orchestrator) saveTreatmentBilling(ctx context.Context, t *Treatment, form *Form, replace bool, warnings *[]Warning) bool {
	selections := make([]billing.ServiceSelection, 0, len(form.Services))
	for _, s := range form.Services {
		selections = append(selections, billing.ServiceSelection{
			ServiceID: s.ServiceID,
			Name:      s.Name,
			Quantity:  s.Quantity,
			UnitPrice: s.UnitPrice,
		})
	}

	medications := make([]billing.MedicationSelection, 0, len(form.Medications))
	prices := make(map[uuid.UUID]float64)
	for _, m := range form.Medications {
		medications = append(medications, billing.MedicationSelection{
			MedicationID: m.MedicationID,
			Name:         m.Name,
			Quantity:     m.Quantity,
		})
		if m.MedicationID == nil {
			continue
		}
		if _, ok := prices[*m.MedicationID]; ok {
			continue
		}
		price, err := o.deps.Catalog.MedicationPrice(ctx, *m.MedicationID)
		if err != nil {
			// Unresolvable prices bill at zero; the line is dropped by Compose.
			continue
		}
		prices[*m.MedicationID] = price
	}

	comp := billing.Compose(selections, medications, prices)
	if comp.Empty() && !replace {
		return false
	}

	inv, err := o.deps.Billing.UpsertForTreatment(ctx, t.PatientID, t.ID, comp)
	if err != nil {
		o.warn(warnings, t.ID, StepBilling, "treatment saved, but billing update failed", err)
		return false
	}
	return inv != nil
}

func (o *Orchestrator) patchSourceAppointment(ctx context.Context, t *Treatment, form *Form, warnings *[]Warning) {
	// Locked by default so routine documentation cannot reschedule a visit.
	if t.SourceAppointmentID == nil || !form.EditSourceAppointment || form.SourceAppointment == nil {
		return
	}

	appt, err := o.deps.Appointments.Get(ctx, *t.SourceAppointmentID)
	if err != nil {
		o.warn(warnings, t.ID, StepAppointment, "treatment saved, but the originating appointment could not be loaded", err)
		return
	}

	patch := form.SourceAppointment
	if patch.Date != nil {
		appt.Date = *patch.Date
	}
	if patch.StartTime != nil {
		appt.StartTime = *patch.StartTime
	}
	if patch.Type != nil {
		appt.Type = patch.Type
	}
	if patch.ChiefComplaint != nil {
		appt.ChiefComplaint = patch.ChiefComplaint
	}
	if patch.Location != nil {
		appt.Location = patch.Location
	}
	if patch.Notes != nil {
		appt.Notes = patch.Notes
	}

	if err := o.deps.Appointments.Update(ctx, appt); err != nil {
		o.warn(warnings, t.ID, StepAppointment, "treatment saved, but the originating appointment could not be updated", err)
	}
}

func eventDetails(appt *schedule.Appointment) calendar.EventDetails {
	title := "Follow-up visit"
	if appt.Type != nil && *appt.Type != "" {
		title = *appt.Type
	}

	start := appt.Date
	if min, err := scheduleClockMinutes(appt.StartTime); err == nil {
		start = appt.Date.Add(time.Duration(min) * time.Minute)
	}
	var end *time.Time
	if appt.EndTime != nil {
		if min, err := scheduleClockMinutes(*appt.EndTime); err == nil {
			e := appt.Date.Add(time.Duration(min) * time.Minute)
			end = &e
		}
	}

	d := calendar.EventDetails{
		Title:     title,
		Start:     start,
		End:       end,
		PatientID: appt.PatientID.String(),
	}
	if appt.Location != nil {
		d.Location = *appt.Location
	}
	if appt.Notes != nil {
		d.Notes = *appt.Notes
	}
	return d
}

func scheduleClockMinutes(clock string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return 0, err
	}
	return h*60 + m, nil
}
