package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/adapters/persistence/repositories"
	"aidmap-api/internal/adapters/realtime"
	"aidmap-api/internal/config"
	"aidmap-api/internal/core/domain"
	"aidmap-api/internal/pkg/geo"
	"aidmap-api/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type memoryProofStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (m *memoryProofStore) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key] = data
	return "https://proofs.test/" + key, nil
}

type testEnv struct {
	db  *gorm.DB
	cfg *config.Config
	hub *realtime.Hub

	aidRequestRepo  repositories.AidRequestRepository
	profileRepo     repositories.ProfileRepository
	transactionRepo repositories.TransactionRepository

	provider *MockPaymentProvider
	proofs   *memoryProofStore

	auth          *AuthService
	profiles      *ProfileService
	neighborhoods *NeighborhoodService
	aid           *AidRequestService
	funding       *FundingService
	maps          *MapService
	messaging     *MessagingService
	verification  *VerificationService
	moderation    *ModerationService
	dashboard     *DashboardService
	admin         *AdminService
	cron          *CronService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	password.Cost = bcrypt.MinCost

	db := newTestDB(t)
	cfg := &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test_secret",
			RefreshSecret:    "test_refresh_secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
		Chat:        config.ChatConfig{RatePerMinute: 3},
		AdminEmails: []string{"admin@aidmap.test"},
	}

	userRepo := repositories.NewUserRepository(db)
	refreshRepo := repositories.NewRefreshTokenRepository(db)
	profileRepo := repositories.NewProfileRepository(db)
	neighborhoodRepo := repositories.NewNeighborhoodRepository(db)
	aidRepo := repositories.NewAidRequestRepository(db)
	txRepo := repositories.NewTransactionRepository(db)
	communityRepo := repositories.NewCommunityMessageRepository(db)
	directRepo := repositories.NewDirectMessageRepository(db)
	requestMsgRepo := repositories.NewRequestMessageRepository(db)
	verificationRepo := repositories.NewVerificationRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	hub := realtime.NewHub()
	provider := instantProvider(nil)
	proofs := &memoryProofStore{files: map[string][]byte{}}

	env := &testEnv{
		db:              db,
		cfg:             cfg,
		hub:             hub,
		aidRequestRepo:  aidRepo,
		profileRepo:     profileRepo,
		transactionRepo: txRepo,
		provider:        provider,
		proofs:          proofs,
	}

	env.auth = NewAuthService(userRepo, refreshRepo, profileRepo, cfg)
	env.profiles = NewProfileService(profileRepo)
	env.neighborhoods = NewNeighborhoodService(neighborhoodRepo, profileRepo, geo.DefaultCityCenters())
	offsetter := geo.NewOffsetterWithSource(func() float64 { return 0.75 })
	env.aid = NewAidRequestService(aidRepo, profileRepo, txRepo, provider, proofs, hub, offsetter)
	env.funding = NewFundingService(aidRepo, profileRepo, provider, hub)
	env.maps = NewMapService(aidRepo, profileRepo, neighborhoodRepo, offsetter)
	env.messaging = NewMessagingService(communityRepo, directRepo, requestMsgRepo, aidRepo, profileRepo, hub, cfg.Chat.RatePerMinute)
	env.verification = NewVerificationService(verificationRepo, profileRepo)
	env.moderation = NewModerationService(reportRepo, communityRepo, directRepo)
	env.dashboard = NewDashboardService(db, aidRepo, txRepo)
	env.admin = NewAdminService(aidRepo, profileRepo, env.auth, env.aid, hub)
	env.cron = NewCronService(env.auth, env.messaging, aidRepo)
	return env
}

// register signs up a user and returns its ID
func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), &RegisterInput{
		Email:    username + "@aidmap.test",
		Password: "supersecret1",
		Username: username,
	})
	require.NoError(t, err)
	return resp.User.ID
}

func (e *testEnv) setReputation(t *testing.T, userID string, score interface{}) {
	t.Helper()
	require.NoError(t, e.db.Model(&models.Profile{}).Where("id = ?", userID).
		Update("reputation_score", score).Error)
}

func (e *testEnv) postGroceries(t *testing.T, ownerID string) *models.AidRequest {
	t.Helper()
	amount := decimal.RequireFromString("25.00")
	req, err := e.aid.Post(context.Background(), ownerID, &PostAidRequestInput{
		Title:       "Groceries",
		Description: "Need groceries for the week",
		Category:    domain.CategoryFood,
		Urgency:     domain.UrgencyMedium,
		Amount:      &amount,
		Latitude:    40.7128,
		Longitude:   -74.0060,
	})
	require.NoError(t, err)
	return req
}

func (e *testEnv) postService(t *testing.T, ownerID string) *models.AidRequest {
	t.Helper()
	service := "Ride to the clinic on Tuesday"
	req, err := e.aid.Post(context.Background(), ownerID, &PostAidRequestInput{
		Title:              "Ride needed",
		Description:        "Appointment at 10am",
		Category:           domain.CategoryTransportation,
		Urgency:            domain.UrgencyHigh,
		AssistanceType:     domain.AssistanceService,
		ServiceDescription: &service,
		Latitude:           40.73,
		Longitude:          -73.99,
	})
	require.NoError(t, err)
	return req
}

func (e *testEnv) fund(t *testing.T, donorID, requestID string) *FundResult {
	t.Helper()
	res, err := e.funding.Fund(context.Background(), donorID, requestID, &FundInput{CardNumber: "4242 4242 4242 4242"})
	require.NoError(t, err)
	return res
}

// recv waits briefly for the next hub event
func recv(t *testing.T, sub *realtime.Subscription) realtime.Event {
	t.Helper()
	select {
	case ev := <-sub.C:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no realtime event received")
		return realtime.Event{}
	}
}
