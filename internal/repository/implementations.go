package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/arogya-app/arogya/backend/internal/models"
)

// HealthRecordRepositoryImpl implements models.HealthRecordRepository
type HealthRecordRepositoryImpl struct {
	db *gorm.DB
}

func NewHealthRecordRepository(db *gorm.DB) models.HealthRecordRepository {
	return &HealthRecordRepositoryImpl{db: db}
}

func (r *HealthRecordRepositoryImpl) GetRecentByUser(userID uint, limit int) ([]models.HealthRecord, error) {
	var records []models.HealthRecord
	err := r.db.Where("user_id = ? AND family_member_id IS NULL", userID).
		Order("record_date DESC").
		Limit(limit).
		Preload("Documents").
		Find(&records).Error
	return records, err
}

func (r *HealthRecordRepositoryImpl) GetRecentByFamilyMember(familyMemberID uint, limit int) ([]models.HealthRecord, error) {
	var records []models.HealthRecord
	err := r.db.Where("family_member_id = ?", familyMemberID).
		Order("record_date DESC").
		Limit(limit).
		Preload("Documents").
		Find(&records).Error
	return records, err
}

func (r *HealthRecordRepositoryImpl) GetByID(id uint) (*models.HealthRecord, error) {
	var record models.HealthRecord
	err := r.db.Preload("Documents").First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// SearchDocumentText finds document excerpts whose extracted text matches
// any of the given terms. Terms are matched case-insensitively.
func (r *HealthRecordRepositoryImpl) SearchDocumentText(userID uint, terms []string, limit int) ([]models.MedicalDocument, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	query := r.db.Model(&models.MedicalDocument{}).
		Joins("JOIN health_records ON health_records.id = medical_documents.health_record_id").
		Where("health_records.user_id = ?", userID)

	var clauses []string
	var args []interface{}
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		clauses = append(clauses, "medical_documents.extracted_text ILIKE ?")
		args = append(args, "%"+term+"%")
	}
	if len(clauses) == 0 {
		return nil, nil
	}
	query = query.Where(strings.Join(clauses, " OR "), args...)

	var docs []models.MedicalDocument
	err := query.Limit(limit).Find(&docs).Error
	return docs, err
}

// FamilyMemberRepositoryImpl implements models.FamilyMemberRepository
type FamilyMemberRepositoryImpl struct {
	db *gorm.DB
}

func NewFamilyMemberRepository(db *gorm.DB) models.FamilyMemberRepository {
	return &FamilyMemberRepositoryImpl{db: db}
}

func (r *FamilyMemberRepositoryImpl) GetByID(id uint) (*models.FamilyMember, error) {
	var member models.FamilyMember
	err := r.db.First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *FamilyMemberRepositoryImpl) BelongsToUser(familyMemberID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.FamilyMember{}).
		Where("id = ? AND user_id = ?", familyMemberID, userID).
		Count(&count).Error
	return count > 0, err
}

// UserRepositoryImpl implements models.UserRepository
type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) models.UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ChatLogRepositoryImpl implements models.ChatLogRepository
type ChatLogRepositoryImpl struct {
	db *gorm.DB
}

func NewChatLogRepository(db *gorm.DB) models.ChatLogRepository {
	return &ChatLogRepositoryImpl{db: db}
}

func (r *ChatLogRepositoryImpl) Create(log *models.ChatLog) error {
	return r.db.Create(log).Error
}

func (r *ChatLogRepositoryImpl) GetRecentByUser(userID uint, limit int) ([]models.ChatLog, error) {
	var logs []models.ChatLog
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// RepositoryManager bundles all repositories
type RepositoryManager struct {
	HealthRecord models.HealthRecordRepository
	FamilyMember models.FamilyMemberRepository
	User         models.UserRepository
	ChatLog      models.ChatLogRepository
}

func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	return &RepositoryManager{
		HealthRecord: NewHealthRecordRepository(db),
		FamilyMember: NewFamilyMemberRepository(db),
		User:         NewUserRepository(db),
		ChatLog:      NewChatLogRepository(db),
	}
}
