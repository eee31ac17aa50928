package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Role represents the role carried in the access token
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// BannedReputation is the score an administrator ban assigns
const BannedReputation = -100

// IsBanned reports whether a reputation score blocks posting and funding.
// A missing score counts as zero.
func IsBanned(reputation *int) bool {
	return reputation != nil && *reputation < 0
}

// Category of an aid request
type Category string

const (
	CategoryFood           Category = "food"
	CategoryTransportation Category = "transportation"
	CategoryChildcare      Category = "childcare"
	CategoryMedical        Category = "medical"
	CategoryHousing        Category = "housing"
	CategoryOther          Category = "other"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryFood, CategoryTransportation, CategoryChildcare,
	CategoryMedical, CategoryHousing, CategoryOther,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Urgency of an aid request or community message
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

var Urgencies = []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical}

func (u Urgency) Valid() bool {
	for _, v := range Urgencies {
		if u == v {
			return true
		}
	}
	return false
}

// AssistanceType says whether a request needs money, a service, or both
type AssistanceType string

const (
	AssistanceMonetary AssistanceType = "monetary"
	AssistanceService  AssistanceType = "service"
	AssistanceBoth     AssistanceType = "both"
)

func (a AssistanceType) Valid() bool {
	return a == AssistanceMonetary || a == AssistanceService || a == AssistanceBoth
}

// NeedsMoney reports whether the assistance type carries an amount
func (a AssistanceType) NeedsMoney() bool {
	return a == AssistanceMonetary || a == AssistanceBoth
}

// NeedsService reports whether the assistance type carries a service description
func (a AssistanceType) NeedsService() bool {
	return a == AssistanceService || a == AssistanceBoth
}

// ValidateAssistance checks the amount/service invariant of an aid request
func ValidateAssistance(kind AssistanceType, amount *decimal.Decimal, serviceDescription *string) error {
	if !kind.Valid() {
		return ErrInvalidAssistanceType
	}
	if kind.NeedsMoney() && (amount == nil || !amount.IsPositive()) {
		return ErrAmountRequired
	}
	if kind.NeedsService() && (serviceDescription == nil || strings.TrimSpace(*serviceDescription) == "") {
		return ErrServiceDescriptionRequired
	}
	if kind == AssistanceService && amount != nil && !amount.IsZero() {
		return ErrUnexpectedAmount
	}
	return nil
}

// RequestStatus is the lifecycle state of an aid request
type RequestStatus string

const (
	StatusOpen       RequestStatus = "open"
	StatusFunded     RequestStatus = "funded"
	StatusInProgress RequestStatus = "in_progress"
	StatusCompleted  RequestStatus = "completed"
	StatusCancelled  RequestStatus = "cancelled"
)

var statusRank = map[RequestStatus]int{
	StatusOpen:       0,
	StatusFunded:     1,
	StatusInProgress: 2,
	StatusCompleted:  3,
}

func (s RequestStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == StatusCancelled
}

// Terminal reports whether no further transition is possible
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether from → to is allowed. Progress only moves
// forward (skipping is fine) and cancelled is reachable from any
// non-terminal state.
func CanTransition(from, to RequestStatus) bool {
	if !from.Valid() || !to.Valid() || from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return statusRank[to] > statusRank[from]
}

// FulfillmentStatus records how a closed request ended
type FulfillmentStatus string

const (
	FulfillmentFulfilled   FulfillmentStatus = "fulfilled"
	FulfillmentUnfulfilled FulfillmentStatus = "unfulfilled"
)

func (f FulfillmentStatus) Valid() bool {
	return f == FulfillmentFulfilled || f == FulfillmentUnfulfilled
}

// TransactionStatus of a payment row
type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxConfirmed TransactionStatus = "confirmed"
	TxReleased  TransactionStatus = "released"
)

// MessageType of a community post
type MessageType string

const (
	MessageHelpNeeded        MessageType = "help_needed"
	MessageHelpOffered       MessageType = "help_offered"
	MessageGeneralDiscussion MessageType = "general_discussion"
)

func (m MessageType) Valid() bool {
	return m == MessageHelpNeeded || m == MessageHelpOffered || m == MessageGeneralDiscussion
}

// Structured reports whether the type carries urgency, category and the
// other help fields.
func (m MessageType) Structured() bool {
	return m == MessageHelpNeeded || m == MessageHelpOffered
}

// VerificationType of a verification submission
type VerificationType string

const (
	VerificationPhone            VerificationType = "phone"
	VerificationAddress          VerificationType = "address"
	VerificationIDDocument       VerificationType = "id_document"
	VerificationCommunityVoucher VerificationType = "community_voucher"
)

func (v VerificationType) Valid() bool {
	switch v {
	case VerificationPhone, VerificationAddress, VerificationIDDocument, VerificationCommunityVoucher:
		return true
	}
	return false
}

// VerificationStatus of a verification submission
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// ReportReason for a message report
type ReportReason string

const (
	ReasonSpam                 ReportReason = "spam"
	ReasonHarassment           ReportReason = "harassment"
	ReasonInappropriateContent ReportReason = "inappropriate_content"
	ReasonScam                 ReportReason = "scam"
	ReasonSafetyConcern        ReportReason = "safety_concern"
	ReasonOther                ReportReason = "other"
)

func (r ReportReason) Valid() bool {
	switch r {
	case ReasonSpam, ReasonHarassment, ReasonInappropriateContent, ReasonScam, ReasonSafetyConcern, ReasonOther:
		return true
	}
	return false
}

// ReportedMessageType tells which table a reported message lives in
type ReportedMessageType string

const (
	ReportedCommunity ReportedMessageType = "community"
	ReportedDirect    ReportedMessageType = "direct"
)

func (r ReportedMessageType) Valid() bool {
	return r == ReportedCommunity || r == ReportedDirect
}

// ReportStatus of a message report
type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportReviewed  ReportStatus = "reviewed"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

func (r ReportStatus) Valid() bool {
	switch r {
	case ReportPending, ReportReviewed, ReportResolved, ReportDismissed:
		return true
	}
	return false
}
