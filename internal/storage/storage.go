package storage

import (
	"context"
	"errors"
	"fmt"

	"ethos/backend/internal/models"

	"gorm.io/gorm"
)

// ErrUnavailable wraps every failure of the backing store. Appends are single
// statements, so a failed call never leaves a partial write and can be retried.
var ErrUnavailable = errors.New("storage unavailable")

// Storage is the persistence boundary of the chat engine: an append-only
// message log plus read access to case records owned elsewhere.
type Storage interface {
	// InsertMessage appends one entry to a case log.
	InsertMessage(ctx context.Context, caseID string, role models.Role, ciphertext string) (*models.Message, error)
	// ListMessagesByCase returns the log ordered by (created_at, id).
	ListMessagesByCase(ctx context.Context, caseID string) ([]models.Message, error)

	// FindCaseByCode returns nil, nil when no case has that code.
	FindCaseByCode(ctx context.Context, code string) (*models.Case, error)
	// FindCaseForIdentity returns the case only if identity may see it, else nil, nil.
	FindCaseForIdentity(ctx context.Context, code string, identity models.Identity) (*models.Case, error)

	Ping(ctx context.Context) error
}

// Service is the PostgreSQL implementation of Storage.
type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Migrate creates the case and log tables when missing.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(&models.Case{}, &models.Message{})
}

// InsertMessage stores a new log entry. Id and timestamp come from Message.BeforeCreate.
func (s *Service) InsertMessage(ctx context.Context, caseID string, role models.Role, ciphertext string) (*models.Message, error) {
	msg := models.Message{
		CaseID:     caseID,
		SenderRole: role,
		Body:       ciphertext,
	}
	if err := s.DB.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("%w: insert message for case %s: %v", ErrUnavailable, caseID, err)
	}
	return &msg, nil
}

// ListMessagesByCase loads the whole log of a case, oldest first.
func (s *Service) ListMessagesByCase(ctx context.Context, caseID string) ([]models.Message, error) {
	var log []models.Message
	err := s.DB.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at asc, id asc").
		Find(&log).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list messages for case %s: %v", ErrUnavailable, caseID, err)
	}
	return log, nil
}

// FindCaseByCode looks a case up by its public code.
func (s *Service) FindCaseByCode(ctx context.Context, code string) (*models.Case, error) {
	var c models.Case
	err := s.DB.WithContext(ctx).Where("code = ?", code).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find case %s: %v", ErrUnavailable, code, err)
	}
	return &c, nil
}

// FindCaseForIdentity applies the ownership rules in the query itself:
// reporters see the cases they filed, investigators see shared-queue cases
// and the ones assigned to them.
func (s *Service) FindCaseForIdentity(ctx context.Context, code string, identity models.Identity) (*models.Case, error) {
	q := s.DB.WithContext(ctx).Where("code = ?", code)
	switch identity.Role {
	case models.RoleReporter:
		q = q.Where("reporter_id = ?", identity.ID)
	case models.RoleInvestigator:
		q = q.Where("assigned_to IS NULL OR cardinality(assigned_to) = 0 OR ? = ANY(assigned_to)", identity.ID)
	default:
		return nil, nil
	}

	var c models.Case
	err := q.First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find case %s for %s: %v", ErrUnavailable, code, identity.Role, err)
	}
	return &c, nil
}

// Ping checks the database connection.
func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
