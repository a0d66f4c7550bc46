package treatment

import (
	"context"
	"errors"
	"strings"
	"testing"
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

type mockRepo struct {
	treatments map[uuid.UUID]*Treatment
	files      map[uuid.UUID][]TreatmentFile
	createErr  error
	updateErr  error
}

func newTreatmentRepo() *mockRepo {
	return &mockRepo{
		treatments: make(map[uuid.UUID]*Treatment),
		files:      make(map[uuid.UUID][]TreatmentFile),
	}
}

func (m *mockRepo) Create(_ context.Context, t *Treatment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	m.treatments[t.ID] = t
	return nil
}

func (m *mockRepo) Get(_ context.Context, id uuid.UUID) (*Treatment, error) {
	t, ok := m.treatments[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (m *mockRepo) Update(_ context.Context, t *Treatment) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.treatments[t.ID]; !ok {
		return ErrNotFound
	}
	m.treatments[t.ID] = t
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, _, _ int) ([]*Treatment, error) {
	var out []*Treatment
	for _, t := range m.treatments {
		if t.PatientID == patientID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockRepo) AddFile(_ context.Context, f *TreatmentFile) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	m.files[f.TreatmentID] = append(m.files[f.TreatmentID], *f)
	return nil
}

func (m *mockRepo) ListFiles(_ context.Context, treatmentID uuid.UUID) ([]TreatmentFile, error) {
	return m.files[treatmentID], nil
}

type mockPrescriptions struct {
	byTreatment map[uuid.UUID]uuid.UUID // treatment -> prescription id
	items       map[uuid.UUID][]prescription.Item
	err         error
}

func newMockPrescriptions() *mockPrescriptions {
	return &mockPrescriptions{
		byTreatment: make(map[uuid.UUID]uuid.UUID),
		items:       make(map[uuid.UUID][]prescription.Item),
	}
}

func (m *mockPrescriptions) Upsert(_ context.Context, treatmentID, patientID uuid.UUID, providerID *uuid.UUID, items []prescription.Item) (*prescription.Prescription, error) {
	if m.err != nil {
		return nil, m.err
	}
	id, ok := m.byTreatment[treatmentID]
	if !ok {
		id = uuid.New()
		m.byTreatment[treatmentID] = id
	}
	m.items[id] = append([]prescription.Item(nil), items...)
	return &prescription.Prescription{ID: id, TreatmentID: treatmentID, PatientID: patientID, ProviderID: providerID, Status: prescription.StatusPending}, nil
}

type mockBilling struct {
	treatmentInv   map[uuid.UUID]*billing.Invoice
	treatmentItems map[uuid.UUID][]billing.InvoiceItem
	apptInv        map[uuid.UUID]*billing.Invoice
	apptItems      map[uuid.UUID][]billing.InvoiceItem
	err            error
}

func newMockBilling() *mockBilling {
	return &mockBilling{
		treatmentInv:   make(map[uuid.UUID]*billing.Invoice),
		treatmentItems: make(map[uuid.UUID][]billing.InvoiceItem),
		apptInv:        make(map[uuid.UUID]*billing.Invoice),
		apptItems:      make(map[uuid.UUID][]billing.InvoiceItem),
	}
}

func (m *mockBilling) UpsertForTreatment(_ context.Context, patientID, treatmentID uuid.UUID, comp billing.Composition) (*billing.Invoice, error) {
	if m.err != nil {
		return nil, m.err
	}
	if comp.Empty() {
		delete(m.treatmentInv, treatmentID)
		delete(m.treatmentItems, treatmentID)
		return nil, nil
	}
	inv, ok := m.treatmentInv[treatmentID]
	if !ok {
		inv = &billing.Invoice{ID: uuid.New(), PatientID: patientID, TreatmentID: &treatmentID, Status: billing.StatusUnpaid}
		m.treatmentInv[treatmentID] = inv
	}
	inv.Subtotal, inv.Total = comp.Subtotal, comp.Total
	m.treatmentItems[treatmentID] = append([]billing.InvoiceItem(nil), comp.Items...)
	return inv, nil
}

func (m *mockBilling) CreateForAppointment(_ context.Context, patientID, appointmentID uuid.UUID, comp billing.Composition) (*billing.Invoice, error) {
	if m.err != nil {
		return nil, m.err
	}
	if comp.Empty() {
		return nil, nil
	}
	inv := &billing.Invoice{ID: uuid.New(), PatientID: patientID, AppointmentID: &appointmentID, Status: billing.StatusUnpaid, Subtotal: comp.Subtotal, Total: comp.Total}
	m.apptInv[appointmentID] = inv
	m.apptItems[appointmentID] = append([]billing.InvoiceItem(nil), comp.Items...)
	return inv, nil
}

type mockAppointments struct {
	appointments map[uuid.UUID]*schedule.Appointment
	bookErr      error
	updateErr    error
}

func newMockAppointments() *mockAppointments {
	return &mockAppointments{appointments: make(map[uuid.UUID]*schedule.Appointment)}
}

func (m *mockAppointments) BookFollowUp(_ context.Context, a *schedule.Appointment) error {
	if m.bookErr != nil {
		return m.bookErr
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.appointments[a.ID] = a
	return nil
}

func (m *mockAppointments) FindByPatientAndDate(_ context.Context, patientID uuid.UUID, date time.Time) (*schedule.Appointment, error) {
	for _, a := range m.appointments {
		if a.PatientID == patientID && a.Status != schedule.StatusCancelled &&
			a.Date.Year() == date.Year() && a.Date.YearDay() == date.YearDay() {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockAppointments) Get(_ context.Context, id uuid.UUID) (*schedule.Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, errors.New("appointment not found")
	}
	copied := *a
	return &copied, nil
}

func (m *mockAppointments) Update(_ context.Context, a *schedule.Appointment) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.appointments[a.ID] = a
	return nil
}

func (m *mockAppointments) SetCalendarEventID(_ context.Context, id uuid.UUID, eventID string) error {
	a, ok := m.appointments[id]
	if !ok {
		return errors.New("appointment not found")
	}
	a.CalendarEventID = &eventID
	return nil
}

func (m *mockAppointments) SetMeetingURL(_ context.Context, id uuid.UUID, url string) error {
	a, ok := m.appointments[id]
	if !ok {
		return errors.New("appointment not found")
	}
	a.MeetingURL = &url
	return nil
}

type mockCatalog struct {
	services  map[uuid.UUID]*catalog.ClinicService
	medPrices map[uuid.UUID]float64
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		services:  make(map[uuid.UUID]*catalog.ClinicService),
		medPrices: make(map[uuid.UUID]float64),
	}
}

func (m *mockCatalog) MedicationPrice(_ context.Context, id uuid.UUID) (float64, error) {
	return m.medPrices[id], nil
}

func (m *mockCatalog) Service(_ context.Context, id uuid.UUID) (*catalog.ClinicService, error) {
	svc, ok := m.services[id]
	if !ok {
		return nil, errors.New("service not found")
	}
	return svc, nil
}

type env struct {
	repo   *mockRepo
	rx     *mockPrescriptions
	bill   *mockBilling
	appts  *mockAppointments
	cat    *mockCatalog
	files  *blobstore.MemoryStore
	cal    *calendar.Mock
	sender *notification.MockSender
	orch   *Orchestrator
}

func newEnv() *env {
	e := &env{
		repo:   newTreatmentRepo(),
		rx:     newMockPrescriptions(),
		bill:   newMockBilling(),
		appts:  newMockAppointments(),
		cat:    newMockCatalog(),
		files:  blobstore.NewMemoryStore(),
		cal:    &calendar.Mock{},
		sender: &notification.MockSender{},
	}
	e.orch = NewOrchestrator(Deps{
		Repo:          e.repo,
		Prescriptions: e.rx,
		Billing:       e.bill,
		Appointments:  e.appts,
		Catalog:       e.cat,
		Files:         e.files,
		Calendar:      e.cal,
		Notifier:      notification.NewManager(e.sender, notification.NewTemplateEngine()),
		Logger:        zerolog.Nop(),
	})
	return e
}

func (e *env) addService(price float64, durationMinutes int, delivery string) uuid.UUID {
	id := uuid.New()
	e.cat.services[id] = &catalog.ClinicService{
		ID: id, Name: "svc", Price: price,
		DurationMinutes: durationMinutes, DeliveryMode: delivery, Active: true,
	}
	return id
}

func baseForm(patient uuid.UUID) *Form {
	return &Form{
		PatientID:     patient,
		TreatmentDate: time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
	}
}

func hasWarning(warnings []Warning, step, fragment string) bool {
	for _, w := range warnings {
		if w.Step == step && strings.Contains(w.Message, fragment) {
			return true
		}
	}
	return false
}

func TestCreate_TreatmentPersistFailureAborts(t *testing.T) {
	e := newEnv()
	e.repo.createErr = errors.New("connection refused")

	form := baseForm(uuid.New())
	med := uuid.New()
	form.Medications = []MedicationLine{{MedicationID: &med, Name: "Paracetamol", Quantity: 10}}

	if _, err := e.orch.Create(context.Background(), nil, form); err == nil {
		t.Fatal("expected hard failure when the treatment row cannot be saved")
	}
	if len(e.rx.byTreatment) != 0 || len(e.bill.treatmentInv) != 0 || len(e.appts.appointments) != 0 {
		t.Error("no downstream step may run after the persist step fails")
	}
}

func TestCreate_FollowUpWithoutTime(t *testing.T) {
	e := newEnv()
	provider := uuid.New()

	form := baseForm(uuid.New())
	date := time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC)
	form.FollowUp = FollowUpForm{Date: &date, ProviderID: &provider} // time missing

	res, err := e.orch.Create(context.Background(), nil, form)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok := e.repo.treatments[res.TreatmentID]; !ok {
		t.Fatal("treatment must be saved despite the incomplete follow-up section")
	}
	if !hasWarning(res.Warnings, StepFollowUp, "no time selected") {
		t.Errorf("expected a 'no time selected' warning, got %+v", res.Warnings)
	}
	if len(e.appts.appointments) != 0 {
		t.Error("no appointment may be created without a chosen time")
	}
	if res.FollowUpAppointmentID != nil {
		t.Error("result must not report a follow-up appointment")
	}
}

func TestCreate_FollowUpWithoutProvider(t *testing.T) {
	e := newEnv()

	form := baseForm(uuid.New())
	date := time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC)
	form.FollowUp = FollowUpForm{Date: &date, StartTime: "10:00"}

	res, err := e.orch.Create(context.Background(), nil, form)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !hasWarning(res.Warnings, StepFollowUp, "no provider selected") {
		t.Errorf("expected a 'no provider selected' warning, got %+v", res.Warnings)
	}
	if len(e.appts.appointments) != 0 {
		t.Error("no appointment may be created without a chosen provider")
	}
}

func TestCreate_EndToEndRemoteFollowUp(t *testing.T) {
	e := newEnv()
	e.cal.EventID = "cal-evt-1"
	e.cal.MeetingURL = "https://meet.example.com/abc"

	patient, provider := uuid.New(), uuid.New()
	visitSvc := uuid.New()
	remoteSvc := e.addService(300, 30, catalog.DeliveryRemote)

	form := baseForm(patient)
	form.Services = []ServiceLine{{ServiceID: &visitSvc, Name: "Consultation", Quantity: 1, UnitPrice: 300}}
	date := time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC)
	form.FollowUp = FollowUpForm{
		Date:       &date,
		StartTime:  "10:00",
		ProviderID: &provider,
		Services:   []ServiceLine{{ServiceID: &remoteSvc, Name: "Tele consult", Quantity: 1}},
	}

	res, err := e.orch.Create(context.Background(), nil, form)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("expected a clean run, got warnings %+v", res.Warnings)
	}

	// Treatment-scoped billing: one 300-total line.
	items := e.bill.treatmentItems[res.TreatmentID]
	if len(items) != 1 || items[0].LineTotal != 300 {
		t.Errorf("expected one treatment invoice line totalling 300, got %+v", items)
	}

	// Follow-up appointment with meeting link and computed end time.
	if res.FollowUpAppointmentID == nil {
		t.Fatal("expected a follow-up appointment")
	}
	appt := e.appts.appointments[*res.FollowUpAppointmentID]
	if appt.MeetingURL == nil || *appt.MeetingURL != e.cal.MeetingURL {
		t.Errorf("expected meeting link on the appointment, got %+v", appt.MeetingURL)
	}
	if appt.CalendarEventID == nil || *appt.CalendarEventID != e.cal.EventID {
		t.Errorf("expected calendar event id on the appointment, got %+v", appt.CalendarEventID)
	}
	if appt.EndTime == nil || *appt.EndTime != "10:30" {
		t.Errorf("expected end time 10:30 from 1 x 30 min, got %+v", appt.EndTime)
	}

	// Appointment-scoped billing for the priced follow-up service.
	if inv := e.bill.apptInv[appt.ID]; inv == nil || inv.Total != 300 {
		t.Errorf("expected a 300-total appointment invoice, got %+v", inv)
	}

	// A "created" notification carrying the meeting link was attempted.
	calls := e.sender.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one notification, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Body, e.cal.MeetingURL) {
		t.Errorf("notification should include the meeting link, got %q", calls[0].Body)
	}
}

func TestCreate_OpenEndedWhenNoDurations(t *testing.T) {
	e := newEnv()
	provider := uuid.New()

	form := baseForm(uuid.New())
	date := time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC)
	form.FollowUp = FollowUpForm{Date: &date, StartTime: "09:00", ProviderID: &provider}

	res, err := e.orch.Create(context.Background(), nil, form)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.FollowUpAppointmentID == nil {
		t.Fatal("expected a follow-up appointment")
	}
	if end := e.appts.appointments[*res.FollowUpAppointmentID].EndTime; end != nil {
		t.Errorf("expected an open-ended appointment, got end %q", *end)
	}
}

func TestCreate_SlotConflictDemotedToWarning(t *testing.T) {
	e := newEnv()
	e.appts.bookErr = schedule.ErrSlotTaken
	provider := uuid.New()

	form := baseForm(uuid.New())
	date := time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC)
	form.FollowUp = FollowUpForm{Date: &date, StartTime: "10:00", ProviderID: &provider}

	res, err := e.orch.Create(context.Background(), nil, form)
	if err != nil {
		t.Fatalf("slot conflicts must not fail the save: %v", err)
	}
	if !hasWarning(res.Warnings, StepFollowUp, "could not be booked") {
		t.Errorf("expected a booking warning, got %+v", res.Warnings)
	}
	if res.FollowUpAppointmentID != nil {
		t.Error("no appointment id may be reported on a failed booking")
	}
}

func TestCreate_AdvisoryFailuresAccumulate(t *testing.T) {
	e := newEnv()
	e.rx.err = errors.New("prescription store down")
	e.bill.err = errors.New("billing store down")

	form := baseForm(uuid.New())
	med := uuid.New()
	e.cat.medPrices[med] = 5
	form.Medications = []MedicationLine{{MedicationID: &med, Name: "Ibuprofen", Quantity: 10}}

	res, err := e.orch.Create(context.Background(), nil, form)
	if err != nil {
		t.Fatalf("advisory failures must not fail the save: %v", err)
	}
	if !hasWarning(res.Warnings, StepPrescription, "prescription update failed") {
		t.Errorf("expected a prescription warning, got %+v", res.Warnings)
	}
	if !hasWarning(res.Warnings, StepBilling, "billing update failed") {
		t.Errorf("expected a billing warning, got %+v", res.Warnings)
	}
	if res.Prescription || res.Billing {
		t.Error("failed steps must not be reported as produced")
	}
}

func TestCreate_UnresolvedMedicationLinesSkipped(t *testing.T) {
	e := newEnv()

	form := baseForm(uuid.New())
	form.Medications = []MedicationLine{{Name: "Free-text remedy", Quantity: 1}} // no reference

	res, err := e.orch.Create(context.Background(), nil, form)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Prescription {
		t.Error("a line without a medication reference must not produce a prescription")
	}
	if len(e.rx.byTreatment) != 0 {
		t.Error("prescription store must not be touched")
	}
}

func TestCreate_ActorIsDefaultProvider(t *testing.T) {
	e := newEnv()
	providerID := uuid.New()
	actor := &middleware.Actor{ID: providerID.String()}

	res, err := e.orch.Create(context.Background(), actor, baseForm(uuid.New()))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	saved := e.repo.treatments[res.TreatmentID]
	if saved.ProviderID == nil || *saved.ProviderID != providerID {
		t.Errorf("expected actor as default provider, got %+v", saved.ProviderID)
	}
}

func TestCreate_AttachmentsUploadedAndLinked(t *testing.T) {
	e := newEnv()

	form := baseForm(uuid.New())
	form.Attachments = []Attachment{
		{FileName: "xray.png", ContentType: "image/png", Data: []byte("png-bytes")},
		{FileName: "lab.pdf", ContentType: "application/pdf", Data: []byte("pdf-bytes")},
	}

	res, err := e.orch.Create(context.Background(), nil, form)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	files := e.repo.files[res.TreatmentID]
	if len(files) != 2 {
		t.Fatalf("expected 2 linked files, got %d", len(files))
	}
	for _, f := range files {
		if f.URL == "" {
			t.Errorf("file %s has no URL", f.FileName)
		}
	}
}

func TestUpdate_TwiceUnchangedMedicationList(t *testing.T) {
	e := newEnv()
	patient := uuid.New()

	form := baseForm(patient)
	medA, medB, medC := uuid.New(), uuid.New(), uuid.New()
	form.Medications = []MedicationLine{
		{MedicationID: &medA, Name: "Paracetamol", Quantity: 10},
		{MedicationID: &medB, Name: "Ibuprofen", Quantity: 20},
		{MedicationID: &medC, Name: "Omeprazole", Quantity: 14},
	}

	created, err := e.orch.Create(context.Background(), nil, form)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 2; i++ {
		res, err := e.orch.Update(context.Background(), nil, created.TreatmentID, form)
		if err != nil {
			t.Fatalf("Update %d: %v", i+1, err)
		}
		if !res.Prescription {
			t.Fatalf("Update %d: expected prescription to be reconciled", i+1)
		}
	}

	if len(e.rx.byTreatment) != 1 {
		t.Fatalf("expected exactly one prescription, got %d", len(e.rx.byTreatment))
	}
	rxID := e.rx.byTreatment[created.TreatmentID]
	if n := len(e.rx.items[rxID]); n != 3 {
		t.Errorf("expected exactly 3 items after repeated updates, got %d", n)
	}
}

func TestUpdate_FollowUpLockedWhenAppointmentExists(t *testing.T) {
	e := newEnv()
	patient, provider := uuid.New(), uuid.New()
	date := time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC)

	form := baseForm(patient)
	form.FollowUp = FollowUpForm{Date: &date, StartTime: "10:00", ProviderID: &provider}
	created, err := e.orch.Create(context.Background(), nil, form)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.FollowUpAppointmentID == nil {
		t.Fatal("setup: expected a follow-up appointment")
	}

	// Second save with the same follow-up date must not rebook.
	res, err := e.orch.Update(context.Background(), nil, created.TreatmentID, form)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !res.FollowUpLocked {
		t.Error("expected the existing follow-up appointment to be reported locked")
	}
	if res.FollowUpAppointmentID == nil || *res.FollowUpAppointmentID != *created.FollowUpAppointmentID {
		t.Error("expected the existing appointment id to be reported")
	}
	if len(e.appts.appointments) != 1 {
		t.Errorf("expected exactly one appointment, got %d", len(e.appts.appointments))
	}
}

func TestUpdate_SourceAppointmentLockedByDefault(t *testing.T) {
	e := newEnv()
	patient := uuid.New()

	source := &schedule.Appointment{
		ID: uuid.New(), PatientID: patient,
		Date:      time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		StartTime: "09:00", Status: schedule.StatusConfirmed,
	}
	e.appts.appointments[source.ID] = source

	form := baseForm(patient)
	form.SourceAppointmentID = &source.ID
	created, err := e.orch.Create(context.Background(), nil, form)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	newTime := "14:00"
	form.SourceAppointment = &AppointmentPatch{StartTime: &newTime}

	// Locked: patch present but edit mode not enabled.
	if _, err := e.orch.Update(context.Background(), nil, created.TreatmentID, form); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if e.appts.appointments[source.ID].StartTime != "09:00" {
		t.Error("source appointment must stay untouched while locked")
	}

	// Unlocked: the patch applies.
	form.EditSourceAppointment = true
	if _, err := e.orch.Update(context.Background(), nil, created.TreatmentID, form); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if e.appts.appointments[source.ID].StartTime != "14:00" {
		t.Error("expected the unlocked patch to move the appointment")
	}
}

func TestUpdate_UnknownTreatment(t *testing.T) {
	e := newEnv()
	if _, err := e.orch.Update(context.Background(), nil, uuid.New(), baseForm(uuid.New())); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_BillingReplacedNotIncremented(t *testing.T) {
	e := newEnv()
	patient := uuid.New()

	form := baseForm(patient)
	form.Services = []ServiceLine{{Name: "Consultation", Quantity: 2, UnitPrice: 500}}
	created, err := e.orch.Create(context.Background(), nil, form)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	form.Services = []ServiceLine{{Name: "Consultation", Quantity: 1, UnitPrice: 500}}
	if _, err := e.orch.Update(context.Background(), nil, created.TreatmentID, form); err != nil {
		t.Fatalf("Update: %v", err)
	}

	inv := e.bill.treatmentInv[created.TreatmentID]
	if inv == nil || inv.Total != 500 {
		t.Fatalf("expected total rewritten to 500, got %+v", inv)
	}
	if len(e.bill.treatmentItems[created.TreatmentID]) != 1 {
		t.Error("expected the item set to be replaced, not appended")
	}
}
