package models

import (
	"time"

	"aidmap-api/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// ============================================================
// Identity
// ============================================================

// User represents users table (identity provider accounts)
type User struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// UserResponse DTO
type UserResponse struct {
	ID        string           `json:"id"`
	Email     string           `json:"email"`
	Role      domain.Role      `json:"role"`
	Profile   *ProfileResponse `json:"profile,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

func (u *User) ToResponse(p *Profile) *UserResponse {
	resp := &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      domain.RoleUser,
		CreatedAt: u.CreatedAt,
	}
	if p != nil {
		resp.Profile = p.ToResponse()
		if p.IsAdmin {
			resp.Role = domain.RoleAdmin
		}
	}
	return resp
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    string     `gorm:"index;size:36;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	assignID(&rt.ID)
	return nil
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Profiles & Neighborhoods
// ============================================================

// Profile represents profiles table. ID equals the owning user's ID.
type Profile struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	Username        string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	IsVerified      bool       `gorm:"default:false" json:"is_verified"`
	ReputationScore *int       `gorm:"default:0" json:"reputation_score"`
	NeighborhoodID  *string    `gorm:"index;size:36" json:"neighborhood_id"`
	Bio             *string    `gorm:"type:text" json:"bio"`
	Skills          []string   `gorm:"serializer:json;type:text" json:"skills"`
	Latitude        *float64   `json:"location_lat"`
	Longitude       *float64   `json:"location_lng"`
	IsAdmin         bool       `gorm:"default:false" json:"is_admin"`
	WelcomeSeenAt   *time.Time `json:"welcome_seen_at"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// Reputation returns the score with a missing value read as zero
func (p *Profile) Reputation() int {
	if p.ReputationScore == nil {
		return 0
	}
	return *p.ReputationScore
}

func (p *Profile) IsBanned() bool {
	return domain.IsBanned(p.ReputationScore)
}

// ProfileResponse DTO
type ProfileResponse struct {
	ID              string   `json:"id"`
	Username        string   `json:"username"`
	IsVerified      bool     `json:"is_verified"`
	ReputationScore int      `json:"reputation_score"`
	NeighborhoodID  *string  `json:"neighborhood_id"`
	Bio             *string  `json:"bio"`
	Skills          []string `json:"skills"`
	IsAdmin         bool     `json:"is_admin"`
}

func (p *Profile) ToResponse() *ProfileResponse {
	return &ProfileResponse{
		ID:              p.ID,
		Username:        p.Username,
		IsVerified:      p.IsVerified,
		ReputationScore: p.Reputation(),
		NeighborhoodID:  p.NeighborhoodID,
		Bio:             p.Bio,
		Skills:          p.Skills,
		IsAdmin:         p.IsAdmin,
	}
}

// Neighborhood represents neighborhoods table
type Neighborhood struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex:idx_neighborhood_name_state" json:"name"`
	City        string    `gorm:"size:100;not null" json:"city"`
	State       string    `gorm:"size:50;not null;uniqueIndex:idx_neighborhood_name_state" json:"state"`
	ZipCode     *string   `gorm:"size:10" json:"zip_code"`
	Latitude    float64   `gorm:"not null" json:"center_lat"`
	Longitude   float64   `gorm:"not null" json:"center_lng"`
	RadiusMiles float64   `gorm:"default:5" json:"radius_miles"`
	CreatedBy   *string   `gorm:"size:36" json:"created_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Neighborhood) TableName() string {
	return "neighborhoods"
}

func (n *Neighborhood) BeforeCreate(tx *gorm.DB) error {
	assignID(&n.ID)
	return nil
}

// ============================================================
// Aid requests & payments
// ============================================================

// AidRequest represents aid_requests table
type AidRequest struct {
	ID                 string                    `gorm:"primaryKey;size:36" json:"id"`
	UserID             string                    `gorm:"index;size:36;not null" json:"user_id"`
	Title              string                    `gorm:"size:200;not null" json:"title"`
	Description        string                    `gorm:"type:text;not null" json:"description"`
	Category           domain.Category           `gorm:"size:30;not null" json:"category"`
	Urgency            domain.Urgency            `gorm:"size:20;not null" json:"urgency"`
	AssistanceType     domain.AssistanceType     `gorm:"size:20;not null;default:'monetary'" json:"assistance_type"`
	Amount             *decimal.Decimal          `gorm:"type:decimal(12,2)" json:"amount"`
	ServiceDescription *string                   `gorm:"type:text" json:"service_description"`
	Latitude           float64                   `gorm:"not null" json:"location_lat"`
	Longitude          float64                   `gorm:"not null" json:"location_lng"`
	Address            *string                   `gorm:"size:255" json:"address"`
	Status             domain.RequestStatus      `gorm:"size:20;not null;default:'open';index" json:"status"`
	DonorID            *string                   `gorm:"index;size:36" json:"donor_id"`
	FulfillmentStatus  *domain.FulfillmentStatus `gorm:"size:20" json:"fulfillment_status"`
	ClosureNotes       *string                   `gorm:"type:text" json:"closure_notes"`
	ProofOfDeliveryURL *string                   `gorm:"size:500" json:"proof_of_delivery_url"`
	EditCount          int                       `gorm:"default:0" json:"edit_count"`
	LastEditedAt       *time.Time                `json:"last_edited_at"`
	FundedAt           *time.Time                `json:"funded_at"`
	CompletedAt        *time.Time                `json:"completed_at"`
	ClosedAt           *time.Time                `json:"closed_at"`
	CreatedAt          time.Time                 `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt          time.Time                 `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt            `gorm:"index" json:"-"`
}

func (AidRequest) TableName() string {
	return "aid_requests"
}

func (a *AidRequest) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}

// IsParticipant reports whether userID is the owner or the donor
func (a *AidRequest) IsParticipant(userID string) bool {
	return a.UserID == userID || (a.DonorID != nil && *a.DonorID == userID)
}

// Counterpart returns the other participant of the request thread
func (a *AidRequest) Counterpart(userID string) (string, bool) {
	if a.DonorID == nil {
		return "", false
	}
	switch userID {
	case a.UserID:
		return *a.DonorID, true
	case *a.DonorID:
		return a.UserID, true
	}
	return "", false
}

// Transaction represents transactions table
type Transaction struct {
	ID           string                   `gorm:"primaryKey;size:36" json:"id"`
	AidRequestID string                   `gorm:"index;size:36;not null" json:"aid_request_id"`
	DonorID      string                   `gorm:"index;size:36;not null" json:"donor_id"`
	Amount       decimal.Decimal          `gorm:"type:decimal(12,2);not null" json:"amount"`
	ExternalRef  string                   `gorm:"size:100" json:"tx_hash"`
	Provider     string                   `gorm:"size:30" json:"provider"`
	Status       domain.TransactionStatus `gorm:"size:20;not null" json:"status"`
	CreatedAt    time.Time                `gorm:"autoCreateTime" json:"created_at"`
	ReleasedAt   *time.Time               `json:"released_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	return nil
}

// ============================================================
// Messaging
// ============================================================

// CommunityMessage represents community_messages table
type CommunityMessage struct {
	ID                  string             `gorm:"primaryKey;size:36" json:"id"`
	UserID              string             `gorm:"index;size:36;not null" json:"user_id"`
	NeighborhoodID      string             `gorm:"index;size:36;not null" json:"neighborhood_id"`
	MessageType         domain.MessageType `gorm:"size:30;not null" json:"message_type"`
	Title               *string            `gorm:"size:200" json:"title"`
	Content             string             `gorm:"type:text;not null" json:"content"`
	Urgency             *domain.Urgency    `gorm:"size:20" json:"urgency"`
	Category            *domain.Category   `gorm:"size:30" json:"category"`
	CompensationOffered *string            `gorm:"size:200" json:"compensation_offered"`
	TimeFrame           *string            `gorm:"size:100" json:"time_frame"`
	SkillsNeeded        []string           `gorm:"serializer:json;type:text" json:"skills_needed"`
	Latitude            *float64           `json:"location_lat"`
	Longitude           *float64           `json:"location_lng"`
	IsResolved          bool               `gorm:"default:false" json:"is_resolved"`
	CreatedAt           time.Time          `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt           time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CommunityMessage) TableName() string {
	return "community_messages"
}

func (m *CommunityMessage) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// DirectMessage represents direct_messages table
type DirectMessage struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	SenderID   string    `gorm:"index;size:36;not null" json:"sender_id"`
	ReceiverID string    `gorm:"index;size:36;not null" json:"receiver_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsRead     bool      `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (DirectMessage) TableName() string {
	return "direct_messages"
}

func (m *DirectMessage) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// Partner returns the other side of the message relative to userID
func (m *DirectMessage) Partner(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// RequestMessage represents request_messages table (per aid request thread)
type RequestMessage struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	AidRequestID string    `gorm:"index;size:36;not null" json:"post_id"`
	SenderID     string    `gorm:"size:36;not null" json:"sender_id"`
	ReceiverID   string    `gorm:"size:36;not null" json:"receiver_id"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (RequestMessage) TableName() string {
	return "request_messages"
}

func (m *RequestMessage) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// ============================================================
// Trust & safety
// ============================================================

// UserVerification represents user_verifications table
type UserVerification struct {
	ID               string                    `gorm:"primaryKey;size:36" json:"id"`
	UserID           string                    `gorm:"index;size:36;not null" json:"user_id"`
	VerificationType domain.VerificationType   `gorm:"size:30;not null" json:"verification_type"`
	Status           domain.VerificationStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	VerificationData datatypes.JSON            `json:"verification_data"`
	VerifiedAt       *time.Time                `json:"verified_at"`
	VerifiedBy       *string                   `gorm:"size:36" json:"verified_by"`
	CreatedAt        time.Time                 `gorm:"autoCreateTime" json:"created_at"`
}

func (UserVerification) TableName() string {
	return "user_verifications"
}

func (v *UserVerification) BeforeCreate(tx *gorm.DB) error {
	assignID(&v.ID)
	return nil
}

// MessageReport represents message_reports table
type MessageReport struct {
	ID           string                     `gorm:"primaryKey;size:36" json:"id"`
	ReporterID   string                     `gorm:"index;size:36;not null" json:"reporter_id"`
	MessageID    string                     `gorm:"index;size:36;not null" json:"message_id"`
	MessageType  domain.ReportedMessageType `gorm:"size:20;not null" json:"message_type"`
	ReportReason domain.ReportReason        `gorm:"size:30;not null" json:"report_reason"`
	Description  *string                    `gorm:"type:text" json:"description"`
	Status       domain.ReportStatus        `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ReviewedBy   *string                    `gorm:"size:36" json:"reviewed_by"`
	ReviewedAt   *time.Time                 `json:"reviewed_at"`
	CreatedAt    time.Time                  `gorm:"autoCreateTime" json:"created_at"`
}

func (MessageReport) TableName() string {
	return "message_reports"
}

func (r *MessageReport) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Profile{},
		&Neighborhood{},
		&AidRequest{},
		&Transaction{},
		&CommunityMessage{},
		&DirectMessage{},
		&RequestMessage{},
		&UserVerification{},
		&MessageReport{},
	)
}
