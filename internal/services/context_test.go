package services

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arogya-app/arogya/backend/internal/models"
)

type fakeRecordRepo struct {
	byUser    []models.HealthRecord
	byMember  []models.HealthRecord
	docs      []models.MedicalDocument
	recordErr error
}

func (f *fakeRecordRepo) GetRecentByUser(uint, int) ([]models.HealthRecord, error) {
	return f.byUser, f.recordErr
}

func (f *fakeRecordRepo) GetRecentByFamilyMember(uint, int) ([]models.HealthRecord, error) {
	return f.byMember, f.recordErr
}

func (f *fakeRecordRepo) GetByID(id uint) (*models.HealthRecord, error) {
	for i := range f.byUser {
		if f.byUser[i].ID == id {
			return &f.byUser[i], nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakeRecordRepo) SearchDocumentText(uint, []string, int) ([]models.MedicalDocument, error) {
	return f.docs, nil
}

type fakeFamilyRepo struct {
	member  *models.FamilyMember
	belongs bool
}

func (f *fakeFamilyRepo) GetByID(uint) (*models.FamilyMember, error) {
	if f.member == nil {
		return nil, errors.New("family member not found")
	}
	return f.member, nil
}

func (f *fakeFamilyRepo) BelongsToUser(uint, uint) (bool, error) {
	return f.belongs, nil
}

type fakeUserRepo struct {
	user *models.User
}

func (f *fakeUserRepo) GetByID(uint) (*models.User, error) {
	if f.user == nil {
		return nil, errors.New("user not found")
	}
	return f.user, nil
}

func testRecord(date string, recordType, complaint, diagnosis string) models.HealthRecord {
	parsed, _ := time.Parse("2006-01-02", date)
	return models.HealthRecord{
		RecordDate:     parsed,
		RecordType:     recordType,
		ChiefComplaint: complaint,
		Diagnosis:      diagnosis,
	}
}

func newTestContextBuilder(records *fakeRecordRepo, family *fakeFamilyRepo, users *fakeUserRepo) *ContextBuilder {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewContextBuilder(records, family, users, logger)
}

func TestContextBuilder_PublicModeReturnsNothing(t *testing.T) {
	records := &fakeRecordRepo{
		byUser: []models.HealthRecord{testRecord("2026-01-10", "complaint", "Headache", "")},
	}
	b := newTestContextBuilder(records, &fakeFamilyRepo{}, &fakeUserRepo{})

	memberID := uint(3)
	context, citations, err := b.Build(1, ModePublic, &memberID, "my headache history")

	require.NoError(t, err)
	assert.Empty(t, context)
	assert.Nil(t, citations)
}

func TestContextBuilder_SelfContextIncludesRecords(t *testing.T) {
	records := &fakeRecordRepo{
		byUser: []models.HealthRecord{
			testRecord("2026-05-02", "complaint", "Recurring headache", "Tension headache"),
		},
	}
	users := &fakeUserRepo{user: &models.User{DisplayName: "Ravi", Gender: "male", BloodGroup: "B+"}}
	b := newTestContextBuilder(records, &fakeFamilyRepo{}, users)

	context, citations, err := b.Build(1, ModePrivate, nil, "why do I get headaches")

	require.NoError(t, err)
	assert.Contains(t, context, "=== Patient Profile ===")
	assert.Contains(t, context, "Name: Ravi")
	assert.Contains(t, context, "=== Recent Health Records ===")
	assert.Contains(t, context, "[2026-05-02]")
	assert.Contains(t, context, "Chief complaint: Recurring headache.")
	assert.Contains(t, context, "Diagnosis: Tension headache.")

	require.Len(t, citations, 1)
	assert.Equal(t, models.CitationMedicalRecord, citations[0].Type)
	assert.Equal(t, "Recurring headache", citations[0].Title)
	assert.Equal(t, "2026-05-02", citations[0].Date)
	assert.Equal(t, "Ravi", citations[0].Owner)
}

func TestContextBuilder_OmitsOlderRecords(t *testing.T) {
	var all []models.HealthRecord
	for i := 0; i < 8; i++ {
		all = append(all, testRecord("2026-04-01", "doctor_visit", "Checkup", ""))
	}
	records := &fakeRecordRepo{byUser: all}
	b := newTestContextBuilder(records, &fakeFamilyRepo{}, &fakeUserRepo{})

	context, citations, err := b.Build(1, ModePrivate, nil, "")

	require.NoError(t, err)
	assert.Contains(t, context, "(3 older records omitted)")
	assert.Len(t, citations, 5)
}

func TestContextBuilder_RelevantRecordsByQueryVocabulary(t *testing.T) {
	records := &fakeRecordRepo{
		byUser: []models.HealthRecord{
			testRecord("2026-02-01", "lab_report", "Fatigue", "Low hemoglobin"),
			testRecord("2026-01-15", "prescription", "Fever", "Viral fever"),
		},
	}
	b := newTestContextBuilder(records, &fakeFamilyRepo{}, &fakeUserRepo{})

	context, _, err := b.Build(1, ModePrivate, nil, "what did my last blood test show?")

	require.NoError(t, err)
	assert.Contains(t, context, "=== Records Most Relevant to Your Question ===")
	assert.Contains(t, context, "Low hemoglobin")
}

func TestContextBuilder_FamilyMemberNotOwned(t *testing.T) {
	b := newTestContextBuilder(&fakeRecordRepo{}, &fakeFamilyRepo{belongs: false}, &fakeUserRepo{})

	memberID := uint(42)
	context, citations, err := b.Build(1, ModePrivate, &memberID, "history")

	require.ErrorIs(t, err, ErrNotAuthorized)
	assert.Empty(t, context)
	assert.Nil(t, citations)
}

func TestContextBuilder_FamilyMemberContext(t *testing.T) {
	family := &fakeFamilyRepo{
		belongs: true,
		member:  &models.FamilyMember{Name: "Asha", Relationship: "mother", BloodGroup: "O+"},
	}
	records := &fakeRecordRepo{
		byMember: []models.HealthRecord{
			testRecord("2026-03-14", "doctor_visit", "Joint pain", "Osteoarthritis"),
		},
	}
	b := newTestContextBuilder(records, family, &fakeUserRepo{})

	memberID := uint(7)
	context, citations, err := b.Build(1, ModePrivate, &memberID, "how is her arthritis")

	require.NoError(t, err)
	assert.Contains(t, context, "=== Family Member Profile (mother) ===")
	assert.Contains(t, context, "Name: Asha")
	assert.Contains(t, context, "=== Medical History ===")
	assert.Contains(t, context, "Osteoarthritis")

	require.Len(t, citations, 1)
	assert.Equal(t, "Asha", citations[0].Owner)
}

func TestContextBuilder_FamilyMemberWithoutRecords(t *testing.T) {
	family := &fakeFamilyRepo{
		belongs: true,
		member:  &models.FamilyMember{Name: "Dev", Relationship: "son"},
	}
	b := newTestContextBuilder(&fakeRecordRepo{}, family, &fakeUserRepo{})

	memberID := uint(9)
	context, citations, err := b.Build(1, ModePrivate, &memberID, "")

	require.NoError(t, err)
	assert.Contains(t, context, "No health records on file.")
	assert.Empty(t, citations)
}

func TestContextBuilder_DocumentMatchesAppended(t *testing.T) {
	records := &fakeRecordRepo{
		byUser: []models.HealthRecord{
			testRecord("2026-06-01", "lab_report", "Dizziness", "Anemia"),
		},
		docs: []models.MedicalDocument{
			{FileName: "cbc_report.pdf", ExtractedText: "Hemoglobin 9.2 g/dL, below reference range."},
		},
	}
	b := newTestContextBuilder(records, &fakeFamilyRepo{}, &fakeUserRepo{})

	context, _, err := b.Build(1, ModePrivate, nil, "")

	require.NoError(t, err)
	assert.Contains(t, context, "=== Related Document Excerpts ===")
	assert.Contains(t, context, "cbc_report.pdf")
	assert.Contains(t, context, "Hemoglobin 9.2 g/dL")
}
