package services

import (
	"context"
	"time"

	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/adapters/persistence/repositories"
	"aidmap-api/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardService handles dashboard operations
type DashboardService struct {
	db              *gorm.DB
	aidRequestRepo  repositories.AidRequestRepository
	transactionRepo repositories.TransactionRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	db *gorm.DB,
	aidRequestRepo repositories.AidRequestRepository,
	transactionRepo repositories.TransactionRepository,
) *DashboardService {
	return &DashboardService{
		db:              db,
		aidRequestRepo:  aidRequestRepo,
		transactionRepo: transactionRepo,
	}
}

// ============================================================
// User Dashboard
// ============================================================

// UserDashboardData represents a member's own dashboard
type UserDashboardData struct {
	MyRequests   []*models.AidRequest           `json:"my_requests"`
	FundedByMe   []*models.AidRequest           `json:"funded_by_me"`
	StatusCounts map[domain.RequestStatus]int64 `json:"status_counts"`
	TotalFunded  decimal.Decimal                `json:"total_funded"`
}

// GetUserDashboard returns the signed-in user's requests and donations
func (s *DashboardService) GetUserDashboard(ctx context.Context, userID string) (*UserDashboardData, error) {
	mine, _, err := s.aidRequestRepo.List(ctx, repositories.AidRequestFilter{UserID: &userID}, 0, 0)
	if err != nil {
		return nil, err
	}

	funded, _, err := s.aidRequestRepo.List(ctx, repositories.AidRequestFilter{DonorID: &userID}, 0, 0)
	if err != nil {
		return nil, err
	}

	counts, err := s.aidRequestRepo.CountByStatus(ctx, repositories.AidRequestFilter{UserID: &userID})
	if err != nil {
		return nil, err
	}

	total, err := s.transactionRepo.SumByDonor(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserDashboardData{
		MyRequests:   mine,
		FundedByMe:   funded,
		StatusCounts: counts,
		TotalFunded:  total,
	}, nil
}

// ============================================================
// Admin Dashboard
// ============================================================

// AdminDashboardData represents admin dashboard data
type AdminDashboardData struct {
	// User Statistics
	TotalUsers    int64 `json:"total_users"`
	VerifiedUsers int64 `json:"verified_users"`
	BannedUsers   int64 `json:"banned_users"`

	// Request Statistics
	TotalRequests     int64           `json:"total_requests"`
	OpenRequests      int64           `json:"open_requests"`
	FundedRequests    int64           `json:"funded_requests"`
	CompletedRequests int64           `json:"completed_requests"`
	TotalFundedAmount decimal.Decimal `json:"total_funded_amount"`

	// Monthly Statistics
	RequestsThisMonth int64 `json:"requests_this_month"`

	// Moderation
	PendingReports       int64 `json:"pending_reports"`
	PendingVerifications int64 `json:"pending_verifications"`

	// Recent Activity
	RecentRequests []RequestSummary `json:"recent_requests"`

	// Top Donors
	TopDonors []DonorStats `json:"top_donors"`
}

// RequestSummary represents aid request summary
type RequestSummary struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Username  string               `json:"username"`
	Amount    *decimal.Decimal     `json:"amount"`
	Status    domain.RequestStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}

// DonorStats represents donor statistics
type DonorStats struct {
	DonorID     string          `json:"donor_id"`
	Username    string          `json:"username"`
	Donations   int64           `json:"donations"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// GetAdminDashboard returns admin dashboard data
func (s *DashboardService) GetAdminDashboard(ctx context.Context) (*AdminDashboardData, error) {
	data := &AdminDashboardData{}
	db := s.db.WithContext(ctx)

	now := time.Now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	requests := func() *gorm.DB { return db.Table("aid_requests").Where("deleted_at IS NULL") }

	counters := []struct {
		dest  *int64
		query *gorm.DB
	}{
		// Users
		{&data.TotalUsers, db.Table("profiles")},
		{&data.VerifiedUsers, db.Table("profiles").Where("is_verified = ?", true)},
		{&data.BannedUsers, db.Table("profiles").Where("reputation_score < 0")},

		// Requests
		{&data.TotalRequests, requests()},
		{&data.OpenRequests, requests().Where("status = ?", domain.StatusOpen)},
		{&data.FundedRequests, requests().Where("status IN ?", []domain.RequestStatus{domain.StatusFunded, domain.StatusInProgress})},
		{&data.CompletedRequests, requests().Where("status = ?", domain.StatusCompleted)},
		{&data.RequestsThisMonth, requests().Where("created_at >= ?", startOfMonth)},

		// Moderation queues
		{&data.PendingReports, db.Table("message_reports").Where("status = ?", domain.ReportPending)},
		{&data.PendingVerifications, db.Table("user_verifications").Where("status = ?", domain.VerificationPending)},
	}
	for _, c := range counters {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	// Total funded
	var funded struct {
		Total decimal.Decimal
	}
	if err := db.Table("transactions").Select("COALESCE(SUM(amount), 0) AS total").Scan(&funded).Error; err != nil {
		return nil, err
	}
	data.TotalFundedAmount = funded.Total.Round(2)

	// Recent requests
	var recent []struct {
		ID        string
		Title     string
		Username  string
		Amount    *decimal.Decimal
		Status    string
		CreatedAt time.Time
	}
	if err := db.Table("aid_requests").
		Select("aid_requests.id, aid_requests.title, profiles.username, aid_requests.amount, aid_requests.status, aid_requests.created_at").
		Joins("LEFT JOIN profiles ON aid_requests.user_id = profiles.id").
		Where("aid_requests.deleted_at IS NULL").
		Order("aid_requests.created_at DESC").
		Limit(10).
		Scan(&recent).Error; err != nil {
		return nil, err
	}

	data.RecentRequests = make([]RequestSummary, len(recent))
	for i, r := range recent {
		summary := RequestSummary{
			ID:        r.ID,
			Title:     r.Title,
			Username:  r.Username,
			Status:    domain.RequestStatus(r.Status),
			CreatedAt: r.CreatedAt,
		}
		if r.Amount != nil {
			amount := r.Amount.Round(2)
			summary.Amount = &amount
		}
		data.RecentRequests[i] = summary
	}

	// Top donors
	var donors []struct {
		DonorID     string
		Username    string
		Donations   int64
		TotalAmount decimal.Decimal
	}
	if err := db.Table("transactions").
		Select(`
			transactions.donor_id,
			profiles.username,
			COUNT(*) as donations,
			COALESCE(SUM(transactions.amount), 0) as total_amount
		`).
		Joins("LEFT JOIN profiles ON transactions.donor_id = profiles.id").
		Group("transactions.donor_id, profiles.username").
		Order("total_amount DESC").
		Limit(5).
		Scan(&donors).Error; err != nil {
		return nil, err
	}

	data.TopDonors = make([]DonorStats, len(donors))
	for i, d := range donors {
		data.TopDonors[i] = DonorStats{
			DonorID:     d.DonorID,
			Username:    d.Username,
			Donations:   d.Donations,
			TotalAmount: d.TotalAmount.Round(2),
		}
	}

	return data, nil
}
