package models

// GORM models

import (
	"time"
)

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is an account holder. Authentication lives outside this service;
// only the identity and display name are needed here.
type User struct {
	BaseModel
	Email         string         `json:"email" gorm:"uniqueIndex;not null"`
	DisplayName   string         `json:"display_name"`
	DateOfBirth   *time.Time     `json:"date_of_birth"`
	Gender        string         `json:"gender"`
	BloodGroup    string         `json:"blood_group"`
	FamilyMembers []FamilyMember `json:"family_members,omitempty" gorm:"foreignKey:UserID"`
	HealthRecords []HealthRecord `json:"health_records,omitempty" gorm:"foreignKey:UserID"`
}

// FamilyMember is a dependent profile owned by a user.
type FamilyMember struct {
	BaseModel
	UserID        uint           `json:"user_id" gorm:"index;not null"`
	Name          string         `json:"name" gorm:"not null"`
	Relationship  string         `json:"relationship"`
	DateOfBirth   *time.Time     `json:"date_of_birth"`
	Gender        string         `json:"gender"`
	BloodGroup    string         `json:"blood_group"`
	HealthRecords []HealthRecord `json:"health_records,omitempty" gorm:"foreignKey:FamilyMemberID"`
}

// HealthRecord is one medical encounter. A record belongs either to the
// user directly (FamilyMemberID nil) or to one of their family members.
type HealthRecord struct {
	BaseModel
	UserID         uint              `json:"user_id" gorm:"index;not null"`
	FamilyMemberID *uint             `json:"family_member_id" gorm:"index"`
	RecordDate     time.Time         `json:"record_date" gorm:"index;not null"`
	RecordType     string            `json:"record_type"` // prescription, lab_report, doctor_visit, complaint
	ChiefComplaint string            `json:"chief_complaint"`
	Diagnosis      string            `json:"diagnosis"`
	Prescription   string            `json:"prescription"`
	Description    string            `json:"description"`
	Documents      []MedicalDocument `json:"documents,omitempty" gorm:"foreignKey:HealthRecordID"`
}

// MedicalDocument is an uploaded file attached to a record. Upload and
// text extraction happen elsewhere; this service only reads ExtractedText.
type MedicalDocument struct {
	BaseModel
	HealthRecordID uint   `json:"health_record_id" gorm:"index;not null"`
	FileName       string `json:"file_name"`
	ContentType    string `json:"content_type"`
	ExtractedText  string `json:"extracted_text" gorm:"type:text"`
}

// ChatLog captures one assistant turn for analytics.
type ChatLog struct {
	BaseModel
	UserID         uint   `json:"user_id" gorm:"index"`
	Query          string `json:"query" gorm:"type:text;not null"`
	Mode           string `json:"mode"`
	ProviderUsed   string `json:"provider_used"`
	CitationCount  int    `json:"citation_count"`
	ResponseTimeMs int    `json:"response_time_ms"`
	Status         string `json:"status"`
}

// Repository interfaces

type HealthRecordRepository interface {
	GetRecentByUser(userID uint, limit int) ([]HealthRecord, error)
	GetRecentByFamilyMember(familyMemberID uint, limit int) ([]HealthRecord, error)
	GetByID(id uint) (*HealthRecord, error)
	SearchDocumentText(userID uint, terms []string, limit int) ([]MedicalDocument, error)
}

type FamilyMemberRepository interface {
	GetByID(id uint) (*FamilyMember, error)
	BelongsToUser(familyMemberID, userID uint) (bool, error)
}

type UserRepository interface {
	GetByID(id uint) (*User, error)
}

type ChatLogRepository interface {
	Create(log *ChatLog) error
	GetRecentByUser(userID uint, limit int) ([]ChatLog, error)
}
