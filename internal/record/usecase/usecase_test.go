package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/medicore/internal/pkg/clock"
	"github.com/shandysiswandi/medicore/internal/pkg/config"
	"github.com/shandysiswandi/medicore/internal/pkg/goerror"
	"github.com/shandysiswandi/medicore/internal/pkg/instrument"
	"github.com/shandysiswandi/medicore/internal/pkg/jwt"
	"github.com/shandysiswandi/medicore/internal/pkg/storage"
	"github.com/shandysiswandi/medicore/internal/pkg/validator"
	"github.com/shandysiswandi/medicore/internal/record/entity"
	"github.com/shandysiswandi/medicore/internal/shared/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	patientID      int64 = 10
	otherPatientID int64 = 11
	doctorID       int64 = 20
	otherDoctorID  int64 = 21
	adminID        int64 = 30
)

type fakeDB struct {
	mu            sync.Mutex
	parties       map[int64]string
	records       map[int64]entity.MedicalRecord
	consultations map[int64]entity.Consultation
	// unreadable holds ids whose ciphertext no longer decrypts.
	unreadable map[int64]bool
}

var errUnreadable = errors.New("cipher: decryption failed")

func newFakeDB() *fakeDB {
	return &fakeDB{
		parties: map[int64]string{
			patientID:      "patient",
			otherPatientID: "patient",
			doctorID:       "doctor",
			otherDoctorID:  "doctor",
			adminID:        "admin",
		},
		records:       map[int64]entity.MedicalRecord{},
		consultations: map[int64]entity.Consultation{},
		unreadable:    map[int64]bool{},
	}
}

func (f *fakeDB) GetParty(_ context.Context, id int64) (*entity.Party, error) {
	role, ok := f.parties[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &entity.Party{ID: id, Role: role}, nil
}

func (f *fakeDB) CreateRecord(_ context.Context, rec entity.MedicalRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.ID] = rec
	return nil
}

func (f *fakeDB) GetRecordOwnership(_ context.Context, id int64) (*entity.Ownership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &entity.Ownership{PatientID: rec.PatientID, DoctorID: rec.DoctorID}, nil
}

func (f *fakeDB) GetRecordByID(_ context.Context, id int64) (*entity.MedicalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	if f.unreadable[id] {
		return nil, errUnreadable
	}
	return &rec, nil
}

func (f *fakeDB) ListRecordsByPatient(_ context.Context, pID, dID int64) ([]entity.MedicalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.MedicalRecord
	for _, rec := range f.records {
		if rec.PatientID == pID && (dID == 0 || rec.DoctorID == dID) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeDB) CreateConsultation(_ context.Context, c entity.Consultation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consultations[c.ID] = c
	return nil
}

func (f *fakeDB) GetConsultationOwnership(_ context.Context, id int64) (*entity.Ownership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.consultations[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &entity.Ownership{PatientID: c.PatientID, DoctorID: c.DoctorID}, nil
}

func (f *fakeDB) GetConsultationByID(_ context.Context, id int64) (*entity.Consultation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.consultations[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	if f.unreadable[id] {
		return nil, errUnreadable
	}
	return &c, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (f *fakeAudit) Record(_ context.Context, e audit.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
}

func (f *fakeAudit) last() audit.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[len(f.entries)-1]
}

type seqID struct{ n int64 }

func (s *seqID) Generate() int64 {
	s.n++
	return 500 + s.n
}

type harness struct {
	uc    *Usecase
	db    *fakeDB
	audit *fakeAudit
	store *storage.Memory
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  record:\n    attachments_bucket: scans\nstorage:\n  presign_ttl: 5\n"))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	h := &harness{
		db:    newFakeDB(),
		audit: &fakeAudit{},
		store: storage.NewMemory("http://files.local/objects"),
	}
	h.uc = New(Dependency{
		RepoDB:     h.db,
		Audit:      h.audit,
		Storage:    h.store,
		Validator:  v,
		Config:     cfg,
		UID:        &seqID{},
		Clock:      clock.NewFixed(time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)),
		Instrument: instrument.NewNoop(),
	})
	return h
}

func as(id int64, role string) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: id, Role: role})
}

func assertCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()
	gerr, ok := goerror.As(err)
	require.True(t, ok, "expected *goerror.Error, got %v", err)
	assert.Equal(t, code, gerr.Code())
}

func (h *harness) seedRecord(t *testing.T, patient, doctor int64) *Record {
	t.Helper()
	rec, err := h.uc.CreateRecord(as(doctor, "doctor"), CreateRecordInput{
		PatientID:  patient,
		RecordType: "diagnosis",
		Title:      "Annual check",
		Content:    map[string]any{"diagnosis": "healthy"},
	})
	require.NoError(t, err)
	return rec
}

func TestCreateRecord(t *testing.T) {
	h := newHarness(t)

	rec := h.seedRecord(t, patientID, doctorID)
	assert.Equal(t, doctorID, rec.DoctorID)
	assert.Equal(t, "healthy", rec.Content["diagnosis"])

	last := h.audit.last()
	assert.Equal(t, audit.ActionCreate, last.Action)
	assert.Equal(t, audit.ResourceRecord, last.ResourceType)
	assert.Equal(t, "501", last.ResourceID)
}

func TestCreateRecord_PatientChecks(t *testing.T) {
	h := newHarness(t)
	in := CreateRecordInput{RecordType: "note", Title: "x", Content: map[string]any{"notes": "y"}}

	in.PatientID = 999
	_, err := h.uc.CreateRecord(as(doctorID, "doctor"), in)
	assertCode(t, err, goerror.CodeNotFound)

	in.PatientID = otherDoctorID
	_, err = h.uc.CreateRecord(as(doctorID, "doctor"), in)
	assertCode(t, err, goerror.CodeInvalidInput)

	in.PatientID = patientID
	in.Content = map[string]any{}
	_, err = h.uc.CreateRecord(as(doctorID, "doctor"), in)
	assertCode(t, err, goerror.CodeInvalidInput)

	_, err = h.uc.CreateRecord(context.Background(), in)
	assertCode(t, err, goerror.CodeUnauthorized)
}

func TestGetRecord_Ownership(t *testing.T) {
	h := newHarness(t)
	rec := h.seedRecord(t, patientID, doctorID)

	tests := []struct {
		name string
		ctx  context.Context
		ok   bool
	}{
		{name: "owning patient", ctx: as(patientID, "patient"), ok: true},
		{name: "authoring doctor", ctx: as(doctorID, "doctor"), ok: true},
		{name: "admin", ctx: as(adminID, "admin"), ok: true},
		{name: "other patient", ctx: as(otherPatientID, "patient")},
		{name: "other doctor", ctx: as(otherDoctorID, "doctor")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.uc.GetRecord(tt.ctx, GetRecordInput{ID: rec.ID})
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, rec.ID, got.ID)
				assert.Equal(t, audit.OutcomeSuccess, h.audit.last().Outcome)
				return
			}
			assertCode(t, err, goerror.CodeForbidden)
			assert.Equal(t, audit.OutcomeUnauthorized, h.audit.last().Outcome)
		})
	}

	_, err := h.uc.GetRecord(as(adminID, "admin"), GetRecordInput{ID: 12345})
	assertCode(t, err, goerror.CodeNotFound)
}

func TestGetRecord_DeniedBeforeDecrypt(t *testing.T) {
	h := newHarness(t)
	rec := h.seedRecord(t, patientID, doctorID)
	h.db.unreadable[rec.ID] = true

	_, err := h.uc.GetRecord(as(otherPatientID, "patient"), GetRecordInput{ID: rec.ID})
	assertCode(t, err, goerror.CodeForbidden)
	assert.Equal(t, audit.OutcomeUnauthorized, h.audit.last().Outcome)
	assert.Equal(t, "501", h.audit.last().ResourceID)

	_, err = h.uc.GetRecord(as(patientID, "patient"), GetRecordInput{ID: rec.ID})
	assertCode(t, err, goerror.CodeInternal)
}

func TestGetConsultation_DeniedBeforeDecrypt(t *testing.T) {
	h := newHarness(t)
	created, err := h.uc.CreateConsultation(as(doctorID, "doctor"), CreateConsultationInput{PatientID: patientID, Notes: "rest"})
	require.NoError(t, err)
	h.db.unreadable[created.ID] = true

	_, err = h.uc.GetConsultation(as(otherDoctorID, "doctor"), GetConsultationInput{ID: created.ID})
	assertCode(t, err, goerror.CodeForbidden)

	_, err = h.uc.GetConsultation(as(adminID, "admin"), GetConsultationInput{ID: 12345})
	assertCode(t, err, goerror.CodeNotFound)
}

func TestListPatientRecords(t *testing.T) {
	h := newHarness(t)
	h.seedRecord(t, patientID, doctorID)
	h.seedRecord(t, patientID, otherDoctorID)
	h.seedRecord(t, otherPatientID, doctorID)

	own, err := h.uc.ListPatientRecords(as(patientID, "patient"), ListPatientRecordsInput{PatientID: patientID})
	require.NoError(t, err)
	assert.Len(t, own, 2)

	byDoctor, err := h.uc.ListPatientRecords(as(doctorID, "doctor"), ListPatientRecordsInput{PatientID: patientID})
	require.NoError(t, err)
	require.Len(t, byDoctor, 1)
	assert.Equal(t, doctorID, byDoctor[0].DoctorID)

	all, err := h.uc.ListPatientRecords(as(adminID, "admin"), ListPatientRecordsInput{PatientID: patientID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = h.uc.ListPatientRecords(as(otherPatientID, "patient"), ListPatientRecordsInput{PatientID: patientID})
	assertCode(t, err, goerror.CodeForbidden)
}

func TestConsultation_AttachmentsArePresigned(t *testing.T) {
	h := newHarness(t)
	_, err := h.store.PutObject(context.Background(), "scans", "patients/10/xray.png", strings.NewReader("png"), storage.PutOptions{ContentType: "image/png"})
	require.NoError(t, err)

	created, err := h.uc.CreateConsultation(as(doctorID, "doctor"), CreateConsultationInput{
		PatientID:   patientID,
		Notes:       "Follow-up in two weeks",
		Attachments: []string{"/patients/10/xray.png"},
	})
	require.NoError(t, err)
	require.Len(t, created.Attachments, 1)
	assert.Equal(t, "patients/10/xray.png", created.Attachments[0].Key)

	got, err := h.uc.GetConsultation(as(patientID, "patient"), GetConsultationInput{ID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, "Follow-up in two weeks", got.Notes)
	require.Len(t, got.Attachments, 1)
	assert.True(t, strings.HasPrefix(got.Attachments[0].URL, "http://files.local/objects/scans/patients/10/xray.png?"), got.Attachments[0].URL)
	assert.Equal(t, audit.ResourceConsultation, h.audit.last().ResourceType)

	_, err = h.uc.GetConsultation(as(otherDoctorID, "doctor"), GetConsultationInput{ID: created.ID})
	assertCode(t, err, goerror.CodeForbidden)
}

func TestCreateConsultation_RejectsMissingOrBadAttachments(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.CreateConsultation(as(doctorID, "doctor"), CreateConsultationInput{
		PatientID:   patientID,
		Notes:       "n",
		Attachments: []string{"missing.pdf"},
	})
	assertCode(t, err, goerror.CodeInvalidInput)

	_, err = h.uc.CreateConsultation(as(doctorID, "doctor"), CreateConsultationInput{
		PatientID:   patientID,
		Notes:       "n",
		Attachments: []string{"../../etc/passwd"},
	})
	assertCode(t, err, goerror.CodeInvalidInput)
	assert.Empty(t, h.db.consultations)
}
