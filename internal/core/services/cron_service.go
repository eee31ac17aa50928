package services

import (
	"context"
	"time"

	"aidmap-api/internal/adapters/persistence/repositories"
	"aidmap-api/internal/pkg/logger"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	// StaleFundedAfter is how long a funded request may sit before it shows
	// up in the daily digest
	StaleFundedAfter = 7 * 24 * time.Hour
	limiterIdleAfter = 30 * time.Minute
	jobTimeout       = time.Minute
)

// CronService runs scheduled maintenance jobs
type CronService struct {
	cron           *cron.Cron
	authService    *AuthService
	messaging      *MessagingService
	aidRequestRepo repositories.AidRequestRepository
}

// NewCronService creates a new cron service
func NewCronService(authService *AuthService, messaging *MessagingService, aidRequestRepo repositories.AidRequestRepository) *CronService {
	return &CronService{
		cron:           cron.New(),
		authService:    authService,
		messaging:      messaging,
		aidRequestRepo: aidRequestRepo,
	}
}

// Start registers the schedules and starts the scheduler
func (s *CronService) Start() error {
	jobs := []struct {
		spec string
		fn   func()
	}{
		{"@daily", func() { s.withTimeout(func(ctx context.Context) { s.CleanupExpiredTokens(ctx) }) }},
		{"@every 10m", func() { s.PruneChatLimiters() }},
		{"0 8 * * *", func() { s.withTimeout(func(ctx context.Context) { s.StaleFundedDigest(ctx) }) }},
	}

	for _, j := range jobs {
		if _, err := s.cron.AddFunc(j.spec, j.fn); err != nil {
			return err
		}
	}

	s.cron.Start()
	logger.L().Info("🚀 CronService started")
	return nil
}

// Stop waits for running jobs to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	logger.L().Info("🛑 CronService stopped")
}

func (s *CronService) withTimeout(fn func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	fn(ctx)
}

// CleanupExpiredTokens deletes refresh tokens past their expiry
func (s *CronService) CleanupExpiredTokens(ctx context.Context) int64 {
	n, err := s.authService.DeleteExpiredTokens(ctx)
	if err != nil {
		logger.WithError(err).Error("❌ Refresh token cleanup failed")
		return 0
	}
	if n > 0 {
		logger.WithField("deleted", n).Info("🧹 Expired refresh tokens removed")
	}
	return n
}

// PruneChatLimiters forgets chat throttles of idle users
func (s *CronService) PruneChatLimiters() int {
	n := s.messaging.PruneLimiters(limiterIdleAfter)
	if n > 0 {
		logger.WithField("removed", n).Debug("Chat limiters pruned")
	}
	return n
}

// StaleFundedDigest logs requests funded long ago that are still not completed
func (s *CronService) StaleFundedDigest(ctx context.Context) int {
	stale, err := s.aidRequestRepo.ListFundedBefore(ctx, time.Now().Add(-StaleFundedAfter))
	if err != nil {
		logger.WithError(err).Error("❌ Stale funded digest failed")
		return 0
	}

	for _, req := range stale {
		fields := logrus.Fields{"request_id": req.ID, "status": req.Status}
		if req.FundedAt != nil {
			fields["funded_at"] = req.FundedAt.Format(time.RFC3339)
		}
		logger.WithFields(fields).Warn("⏰ Funded request awaiting completion")
	}
	logger.WithField("count", len(stale)).Info("📋 Stale funded digest")
	return len(stale)
}
