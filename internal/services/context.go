package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arogya-app/arogya/backend/internal/models"
)

// Mode gates whether personal health data may enter the LLM context.
type Mode string

const (
	ModePublic  Mode = "public"
	ModePrivate Mode = "private"
)

// ErrNotAuthorized is returned when a family member does not belong to
// the requesting user. No data is returned alongside it.
var ErrNotAuthorized = errors.New("family member does not belong to user")

const (
	maxRecordsFetched   = 10
	maxRecordsInContext = 5
	maxRelevantRecords  = 3
	maxDescriptionLen   = 200
	maxDocPreviewLen    = 300
	maxDocMatches       = 3
)

// recordTypeKeywords maps question vocabulary to the record types most
// likely to answer it.
var recordTypeKeywords = map[string]string{
	"prescription": "prescription",
	"medicine":     "prescription",
	"drug":         "prescription",
	"lab":          "lab_report",
	"test":         "lab_report",
	"blood":        "lab_report",
	"result":       "lab_report",
	"visit":        "doctor_visit",
	"appointment":  "doctor_visit",
	"doctor":       "doctor_visit",
	"symptom":      "complaint",
	"pain":         "complaint",
	"feeling":      "complaint",
}

// ContextBuilder assembles the personal-data block of the LLM prompt.
type ContextBuilder struct {
	records models.HealthRecordRepository
	family  models.FamilyMemberRepository
	users   models.UserRepository
	logger  *logrus.Logger
}

func NewContextBuilder(
	records models.HealthRecordRepository,
	family models.FamilyMemberRepository,
	users models.UserRepository,
	logger *logrus.Logger,
) *ContextBuilder {
	return &ContextBuilder{
		records: records,
		family:  family,
		users:   users,
		logger:  logger,
	}
}

// Build returns the patient context and the record citations backing it.
// Public mode always returns nothing, regardless of the selector.
// Private mode with a family member verifies ownership before touching
// any data.
func (b *ContextBuilder) Build(userID uint, mode Mode, familyMemberID *uint, query string) (string, []models.Citation, error) {
	if mode != ModePrivate {
		return "", nil, nil
	}

	if familyMemberID != nil {
		return b.buildForFamilyMember(userID, *familyMemberID)
	}
	return b.buildForSelf(userID, query)
}

func (b *ContextBuilder) buildForSelf(userID uint, query string) (string, []models.Citation, error) {
	var sb strings.Builder

	owner := "self"
	if user, err := b.users.GetByID(userID); err == nil {
		owner = user.DisplayName
		sb.WriteString("=== Patient Profile ===\n")
		sb.WriteString(describePerson(user.DisplayName, user.DateOfBirth, user.Gender, user.BloodGroup))
		sb.WriteString("\n")
	} else {
		b.logger.WithError(err).WithField("user_id", userID).Warn("Could not load user profile for context")
	}

	records, err := b.records.GetRecentByUser(userID, maxRecordsFetched)
	if err != nil {
		b.logger.WithError(err).Warn("Could not load health records for context")
		return sb.String(), nil, nil
	}
	if len(records) == 0 {
		return sb.String(), nil, nil
	}

	sb.WriteString("\n=== Recent Health Records ===\n")
	included := records
	if len(included) > maxRecordsInContext {
		included = included[:maxRecordsInContext]
	}

	citations := make([]models.Citation, 0, len(included))
	for _, record := range included {
		sb.WriteString(describeRecord(record))
		citations = append(citations, recordCitation(record, owner))
	}
	if omitted := len(records) - len(included); omitted > 0 {
		sb.WriteString(fmt.Sprintf("(%d older records omitted)\n", omitted))
	}

	if relevant := b.relevantRecords(records, query); len(relevant) > 0 {
		sb.WriteString("\n=== Records Most Relevant to Your Question ===\n")
		for _, record := range relevant {
			sb.WriteString(describeRecord(record))
		}
	}

	b.appendDocumentMatches(&sb, userID, records)

	return sb.String(), citations, nil
}

func (b *ContextBuilder) buildForFamilyMember(userID, familyMemberID uint) (string, []models.Citation, error) {
	belongs, err := b.family.BelongsToUser(familyMemberID, userID)
	if err != nil {
		return "", nil, fmt.Errorf("ownership check failed: %w", err)
	}
	if !belongs {
		return "", nil, ErrNotAuthorized
	}

	member, err := b.family.GetByID(familyMemberID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load family member: %w", err)
	}

	records, err := b.records.GetRecentByFamilyMember(familyMemberID, maxRecordsFetched)
	if err != nil {
		b.logger.WithError(err).Warn("Could not load family member records for context")
		records = nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== Family Member Profile (%s) ===\n", member.Relationship))
	sb.WriteString(describePerson(member.Name, member.DateOfBirth, member.Gender, member.BloodGroup))
	sb.WriteString("\n")
	sb.WriteString(aggregateMemberContext(records))

	citations := make([]models.Citation, 0, len(records))
	for i, record := range records {
		if i >= maxRecordsInContext {
			break
		}
		citations = append(citations, recordCitation(record, member.Name))
	}

	return sb.String(), citations, nil
}

// relevantRecords re-scans the fetched records for the types the query
// vocabulary points at, keeping at most maxRelevantRecords.
func (b *ContextBuilder) relevantRecords(records []models.HealthRecord, query string) []models.HealthRecord {
	wanted := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, ".,?!;:")
		if recordType, ok := recordTypeKeywords[word]; ok {
			wanted[recordType] = true
		}
	}
	if len(wanted) == 0 {
		return nil
	}

	var relevant []models.HealthRecord
	for _, record := range records {
		if wanted[record.RecordType] {
			relevant = append(relevant, record)
			if len(relevant) == maxRelevantRecords {
				break
			}
		}
	}
	return relevant
}

// appendDocumentMatches runs the secondary document-content search using
// the patient's own recent complaints and diagnoses as terms.
func (b *ContextBuilder) appendDocumentMatches(sb *strings.Builder, userID uint, records []models.HealthRecord) {
	var terms []string
	for _, record := range records {
		if record.ChiefComplaint != "" {
			terms = append(terms, record.ChiefComplaint)
		}
		if record.Diagnosis != "" {
			terms = append(terms, record.Diagnosis)
		}
	}
	if len(terms) == 0 {
		return
	}

	docs, err := b.records.SearchDocumentText(userID, terms, maxDocMatches)
	if err != nil {
		b.logger.WithError(err).Warn("Document content search failed")
		return
	}
	if len(docs) == 0 {
		return
	}

	sb.WriteString("\n=== Related Document Excerpts ===\n")
	for _, doc := range docs {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", doc.FileName, truncate(doc.ExtractedText, maxDocPreviewLen)))
	}
}

// aggregateMemberContext condenses a family member's records into one
// medical-context block.
func aggregateMemberContext(records []models.HealthRecord) string {
	if len(records) == 0 {
		return "No health records on file.\n"
	}

	var sb strings.Builder
	sb.WriteString("\n=== Medical History ===\n")

	included := records
	if len(included) > maxRecordsInContext {
		included = included[:maxRecordsInContext]
	}
	for _, record := range included {
		sb.WriteString(describeRecord(record))
	}
	if omitted := len(records) - len(included); omitted > 0 {
		sb.WriteString(fmt.Sprintf("(%d older records omitted)\n", omitted))
	}
	return sb.String()
}

func describePerson(name string, dob *time.Time, gender, bloodGroup string) string {
	parts := []string{"Name: " + name}
	if dob != nil {
		age := int(time.Since(*dob).Hours() / 24 / 365.25)
		parts = append(parts, fmt.Sprintf("Age: %d", age))
	}
	if gender != "" {
		parts = append(parts, "Gender: "+gender)
	}
	if bloodGroup != "" {
		parts = append(parts, "Blood group: "+bloodGroup)
	}
	return strings.Join(parts, ", ") + "\n"
}

func describeRecord(record models.HealthRecord) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("- [%s]", record.RecordDate.Format("2006-01-02")))
	if record.ChiefComplaint != "" {
		sb.WriteString(" Chief complaint: " + record.ChiefComplaint + ".")
	}
	if record.Diagnosis != "" {
		sb.WriteString(" Diagnosis: " + record.Diagnosis + ".")
	}
	if record.Prescription != "" {
		sb.WriteString(" Prescription: " + record.Prescription + ".")
	}
	if record.Description != "" {
		sb.WriteString(" Notes: " + truncate(record.Description, maxDescriptionLen))
	}
	sb.WriteString("\n")
	for i, doc := range record.Documents {
		if i >= 2 {
			sb.WriteString(fmt.Sprintf("  (%d more documents omitted)\n", len(record.Documents)-i))
			break
		}
		if doc.ExtractedText != "" {
			sb.WriteString(fmt.Sprintf("  Document %s: %s\n", doc.FileName, truncate(doc.ExtractedText, maxDocPreviewLen)))
		}
	}
	return sb.String()
}

func recordCitation(record models.HealthRecord, owner string) models.Citation {
	title := record.ChiefComplaint
	if title == "" {
		title = record.Diagnosis
	}
	if title == "" {
		title = "Health record"
	}
	return models.NewRecordCitation(title, record.RecordDate.Format("2006-01-02"), record.RecordType, owner)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
