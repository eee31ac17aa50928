package services

import (
	"context"
	"errors"
	"time"

	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/adapters/persistence/repositories"
	"aidmap-api/internal/core/domain"
	"aidmap-api/internal/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Moderation errors
var (
	ErrReportNotFound      = errors.New("report not found")
	ErrInvalidReportReason = errors.New("invalid report reason")
	ErrInvalidReportTarget = errors.New("message type must be community or direct")
	ErrInvalidReportStatus = errors.New("invalid report status")
	ErrCannotReportOwn     = errors.New("cannot report your own message")
	ErrReportedMsgNotFound = errors.New("reported message not found")
)

// ModerationService handles message reports
type ModerationService struct {
	reportRepo    repositories.ReportRepository
	communityRepo repositories.CommunityMessageRepository
	directRepo    repositories.DirectMessageRepository
}

// NewModerationService creates a new moderation service
func NewModerationService(
	reportRepo repositories.ReportRepository,
	communityRepo repositories.CommunityMessageRepository,
	directRepo repositories.DirectMessageRepository,
) *ModerationService {
	return &ModerationService{
		reportRepo:    reportRepo,
		communityRepo: communityRepo,
		directRepo:    directRepo,
	}
}

// ReportInput flags a message for review
type ReportInput struct {
	MessageID    string                     `json:"message_id" validate:"required"`
	MessageType  domain.ReportedMessageType `json:"message_type"`
	ReportReason domain.ReportReason        `json:"report_reason"`
	Description  *string                    `json:"description" validate:"omitempty,max=1000"`
}

// Report files a pending report against a community or direct message
func (s *ModerationService) Report(ctx context.Context, reporterID string, input *ReportInput) (*models.MessageReport, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if !input.MessageType.Valid() {
		return nil, ErrInvalidReportTarget
	}
	if !input.ReportReason.Valid() {
		return nil, ErrInvalidReportReason
	}

	authorID, err := s.messageAuthor(ctx, input.MessageType, input.MessageID)
	if err != nil {
		return nil, err
	}
	if authorID == reporterID {
		return nil, ErrCannotReportOwn
	}

	report := &models.MessageReport{
		ReporterID:   reporterID,
		MessageID:    input.MessageID,
		MessageType:  input.MessageType,
		ReportReason: input.ReportReason,
		Description:  trimmed(input.Description),
		Status:       domain.ReportPending,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"report_id":  report.ID,
		"message_id": report.MessageID,
		"reason":     report.ReportReason,
	}).Warn("🚩 Message reported")
	return report, nil
}

func (s *ModerationService) messageAuthor(ctx context.Context, kind domain.ReportedMessageType, id string) (string, error) {
	var (
		authorID string
		err      error
	)
	switch kind {
	case domain.ReportedCommunity:
		var msg *models.CommunityMessage
		if msg, err = s.communityRepo.GetByID(ctx, id); err == nil {
			authorID = msg.UserID
		}
	case domain.ReportedDirect:
		var msg *models.DirectMessage
		if msg, err = s.directRepo.GetByID(ctx, id); err == nil {
			authorID = msg.SenderID
		}
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrReportedMsgNotFound
		}
		return "", err
	}
	return authorID, nil
}

// List returns reports newest first, optionally filtered by status
func (s *ModerationService) List(ctx context.Context, status *domain.ReportStatus) ([]*models.MessageReport, error) {
	if status != nil && !status.Valid() {
		return nil, ErrInvalidReportStatus
	}
	return s.reportRepo.List(ctx, status)
}

// Review moves a report to reviewed, resolved or dismissed
func (s *ModerationService) Review(ctx context.Context, reviewerID, id string, status domain.ReportStatus) (*models.MessageReport, error) {
	if !status.Valid() || status == domain.ReportPending {
		return nil, ErrInvalidReportStatus
	}

	if _, err := s.reportRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	fields := map[string]interface{}{
		"status":      status,
		"reviewed_by": reviewerID,
		"reviewed_at": time.Now(),
	}
	if err := s.reportRepo.Update(ctx, id, fields); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{"report_id": id, "status": status}).Info("✅ Report reviewed")
	return s.reportRepo.GetByID(ctx, id)
}
