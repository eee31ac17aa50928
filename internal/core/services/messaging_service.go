package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"aidmap-api/internal/adapters/persistence/models"
	"aidmap-api/internal/adapters/persistence/repositories"
	"aidmap-api/internal/adapters/realtime"
	"aidmap-api/internal/core/domain"
	"aidmap-api/internal/pkg/logger"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Messaging errors
var (
	ErrEmptyMessage          = errors.New("message content is required")
	ErrMessageNotFound       = errors.New("message not found")
	ErrNotMessageAuthor      = errors.New("only the author can resolve this message")
	ErrNotNeighborhoodMember = errors.New("join this neighborhood to post")
	ErrInvalidMessageType    = errors.New("invalid message type")
	ErrCannotMessageSelf     = errors.New("cannot send a message to yourself")
	ErrRecipientNotFound     = errors.New("recipient not found")
	ErrRateLimited           = errors.New("too many messages, slow down")
)

// MessageFilterAll disables the community type filter
const MessageFilterAll = "all"

const maxMessageLength = 2000

type chatLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MessagingService covers neighborhood chat, direct messages and the
// per-request threads between a requester and a donor.
type MessagingService struct {
	communityRepo  repositories.CommunityMessageRepository
	directRepo     repositories.DirectMessageRepository
	requestMsgRepo repositories.RequestMessageRepository
	aidRequestRepo repositories.AidRequestRepository
	profileRepo    repositories.ProfileRepository
	publisher      realtime.Publisher

	ratePerMinute int
	mu            sync.Mutex
	limiters      map[string]*chatLimiter
}

// NewMessagingService creates a new messaging service. A ratePerMinute of
// zero disables the community chat throttle.
func NewMessagingService(
	communityRepo repositories.CommunityMessageRepository,
	directRepo repositories.DirectMessageRepository,
	requestMsgRepo repositories.RequestMessageRepository,
	aidRequestRepo repositories.AidRequestRepository,
	profileRepo repositories.ProfileRepository,
	publisher realtime.Publisher,
	ratePerMinute int,
) *MessagingService {
	return &MessagingService{
		communityRepo:  communityRepo,
		directRepo:     directRepo,
		requestMsgRepo: requestMsgRepo,
		aidRequestRepo: aidRequestRepo,
		profileRepo:    profileRepo,
		publisher:      publisher,
		ratePerMinute:  ratePerMinute,
		limiters:       make(map[string]*chatLimiter),
	}
}

func cleanContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyMessage
	}
	if len(content) > maxMessageLength {
		return "", fmt.Errorf("%w: content must be at most %d characters", ErrValidation, maxMessageLength)
	}
	return content, nil
}

// ============================================================
// Community chat
// ============================================================

// CommunityPostInput is a neighborhood chat message
type CommunityPostInput struct {
	MessageType         domain.MessageType `json:"message_type"`
	Title               *string            `json:"title" validate:"omitempty,max=200"`
	Content             string             `json:"content"`
	Urgency             *domain.Urgency    `json:"urgency"`
	Category            *domain.Category   `json:"category"`
	CompensationOffered *string            `json:"compensation_offered" validate:"omitempty,max=200"`
	TimeFrame           *string            `json:"time_frame" validate:"omitempty,max=100"`
	// SkillsNeeded is a comma separated list
	SkillsNeeded *string  `json:"skills_needed"`
	Latitude     *float64 `json:"location_lat"`
	Longitude    *float64 `json:"location_lng"`
}

// ListCommunity returns a neighborhood's chat oldest first. filter is
// "all" (or empty) or a message type.
func (s *MessagingService) ListCommunity(ctx context.Context, neighborhoodID, filter string) ([]*models.CommunityMessage, error) {
	var messageType *domain.MessageType
	if filter != "" && filter != MessageFilterAll {
		mt := domain.MessageType(filter)
		if !mt.Valid() {
			return nil, ErrInvalidMessageType
		}
		messageType = &mt
	}
	return s.communityRepo.ListByNeighborhood(ctx, neighborhoodID, messageType)
}

// PostCommunity adds a message to the author's own neighborhood chat
func (s *MessagingService) PostCommunity(ctx context.Context, userID, neighborhoodID string, input *CommunityPostInput) (*models.CommunityMessage, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if input.MessageType == "" {
		input.MessageType = domain.MessageGeneralDiscussion
	}
	if !input.MessageType.Valid() {
		return nil, ErrInvalidMessageType
	}
	content, err := cleanContent(input.Content)
	if err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if profile.NeighborhoodID == nil || *profile.NeighborhoodID != neighborhoodID {
		return nil, ErrNotNeighborhoodMember
	}

	if !s.allow(userID) {
		logger.WithField("user_id", userID).Warn("⚠️ Community chat rate limit hit")
		return nil, ErrRateLimited
	}

	msg := &models.CommunityMessage{
		UserID:         userID,
		NeighborhoodID: neighborhoodID,
		MessageType:    input.MessageType,
		Title:          trimmed(input.Title),
		Content:        content,
		Latitude:       input.Latitude,
		Longitude:      input.Longitude,
	}
	if input.MessageType.Structured() {
		if input.Urgency != nil {
			if !input.Urgency.Valid() {
				return nil, ErrInvalidUrgency
			}
			msg.Urgency = input.Urgency
		}
		if input.Category != nil {
			if !input.Category.Valid() {
				return nil, ErrInvalidCategory
			}
			msg.Category = input.Category
		}
		msg.CompensationOffered = trimmed(input.CompensationOffered)
		msg.TimeFrame = trimmed(input.TimeFrame)
		if input.SkillsNeeded != nil {
			msg.SkillsNeeded = ParseSkills(*input.SkillsNeeded)
		}
	}

	if err := s.communityRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	publish(s.publisher, realtime.CommunityTopic(neighborhoodID), realtime.EventInsert, msg.ID, msg.CreatedAt, msg)
	return msg, nil
}

// ResolveCommunity marks a help message as resolved. Author only.
func (s *MessagingService) ResolveCommunity(ctx context.Context, userID, messageID string) (*models.CommunityMessage, error) {
	msg, err := s.communityRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	if msg.UserID != userID {
		return nil, ErrNotMessageAuthor
	}
	if msg.IsResolved {
		return msg, nil
	}

	if err := s.communityRepo.MarkResolved(ctx, messageID); err != nil {
		return nil, err
	}
	msg.IsResolved = true

	publish(s.publisher, realtime.CommunityTopic(msg.NeighborhoodID), realtime.EventUpdate, msg.ID, msg.CreatedAt, msg)
	return msg, nil
}

// allow spends one token from the user's chat limiter
func (s *MessagingService) allow(userID string) bool {
	if s.ratePerMinute <= 0 {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.limiters[userID]
	if !ok {
		entry = &chatLimiter{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.ratePerMinute)), s.ratePerMinute),
		}
		s.limiters[userID] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// PruneLimiters drops chat limiters idle for longer than idle
func (s *MessagingService) PruneLimiters(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-idle)
	removed := 0
	for userID, entry := range s.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(s.limiters, userID)
			removed++
		}
	}
	return removed
}

// ============================================================
// Direct messages
// ============================================================

// Conversation summarizes a direct message partner
type Conversation struct {
	PartnerID       string                `json:"partner_id"`
	PartnerUsername string                `json:"partner_username"`
	PartnerVerified bool                  `json:"partner_verified"`
	LastMessage     *models.DirectMessage `json:"last_message"`
	UnreadCount     int                   `json:"unread_count"`
}

// SendDirect sends a private message
func (s *MessagingService) SendDirect(ctx context.Context, senderID, receiverID, content string) (*models.DirectMessage, error) {
	if senderID == receiverID {
		return nil, ErrCannotMessageSelf
	}
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}

	if _, err := s.profileRepo.GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}

	msg := &models.DirectMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}
	if err := s.directRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	publish(s.publisher, realtime.DirectTopic(senderID, receiverID), realtime.EventInsert, msg.ID, msg.CreatedAt, msg)
	return msg, nil
}

// Conversations groups the user's direct messages by partner, most recent first
func (s *MessagingService) Conversations(ctx context.Context, userID string) ([]*Conversation, error) {
	messages, err := s.directRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	byPartner := make(map[string]*Conversation)
	var order []*Conversation
	for _, m := range messages {
		partnerID := m.Partner(userID)
		conv, ok := byPartner[partnerID]
		if !ok {
			conv = &Conversation{PartnerID: partnerID, LastMessage: m}
			byPartner[partnerID] = conv
			order = append(order, conv)
		}
		if m.CreatedAt.After(conv.LastMessage.CreatedAt) {
			conv.LastMessage = m
		}
		if m.ReceiverID == userID && !m.IsRead {
			conv.UnreadCount++
		}
	}

	partnerIDs := make([]string, 0, len(order))
	for _, c := range order {
		partnerIDs = append(partnerIDs, c.PartnerID)
	}
	profiles, err := s.profileRepo.GetByIDs(ctx, partnerIDs)
	if err != nil {
		return nil, err
	}
	for _, c := range order {
		if p, ok := profiles[c.PartnerID]; ok {
			c.PartnerUsername = p.Username
			c.PartnerVerified = p.IsVerified
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].LastMessage.CreatedAt.After(order[j].LastMessage.CreatedAt)
	})
	return order, nil
}

// DirectThread returns the messages between two users oldest first
func (s *MessagingService) DirectThread(ctx context.Context, userID, partnerID string) ([]*models.DirectMessage, error) {
	return s.directRepo.Thread(ctx, userID, partnerID)
}

// MarkRead marks everything partnerID sent to userID as read
func (s *MessagingService) MarkRead(ctx context.Context, userID, partnerID string) (int64, error) {
	n, err := s.directRepo.MarkRead(ctx, userID, partnerID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.WithFields(logrus.Fields{"user_id": userID, "partner_id": partnerID, "count": n}).Debug("Marked messages read")
	}
	return n, nil
}

// ============================================================
// Request threads
// ============================================================

// RequestConversation is one aid request thread the user takes part in
type RequestConversation struct {
	Request         *models.AidRequest     `json:"request"`
	PartnerID       string                 `json:"partner_id"`
	PartnerUsername string                 `json:"partner_username"`
	LastMessage     *models.RequestMessage `json:"last_message"`
}

func (c *RequestConversation) lastActivity() time.Time {
	if c.LastMessage != nil {
		return c.LastMessage.CreatedAt
	}
	return c.Request.CreatedAt
}

// RequestConversations lists funded requests where the user is the owner or
// the donor, most recently active first.
func (s *MessagingService) RequestConversations(ctx context.Context, userID string) ([]*RequestConversation, error) {
	requests, err := s.aidRequestRepo.ListParticipating(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return []*RequestConversation{}, nil
	}

	ids := make([]string, 0, len(requests))
	partnerIDs := make([]string, 0, len(requests))
	convs := make([]*RequestConversation, 0, len(requests))
	for _, req := range requests {
		partnerID, ok := req.Counterpart(userID)
		if !ok {
			continue
		}
		ids = append(ids, req.ID)
		partnerIDs = append(partnerIDs, partnerID)
		convs = append(convs, &RequestConversation{Request: req, PartnerID: partnerID})
	}

	latest, err := s.requestMsgRepo.LatestByRequests(ctx, ids)
	if err != nil {
		return nil, err
	}
	profiles, err := s.profileRepo.GetByIDs(ctx, partnerIDs)
	if err != nil {
		return nil, err
	}

	for _, c := range convs {
		c.LastMessage = latest[c.Request.ID]
		if p, ok := profiles[c.PartnerID]; ok {
			c.PartnerUsername = p.Username
		}
	}

	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].lastActivity().After(convs[j].lastActivity())
	})
	return convs, nil
}

// participantRequest loads a request and checks userID takes part in it
func (s *MessagingService) participantRequest(ctx context.Context, userID, requestID string) (*models.AidRequest, error) {
	req, err := s.aidRequestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAidRequestNotFound
		}
		return nil, err
	}
	if !req.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return req, nil
}

// RequestThread returns one request's thread oldest first. Participants only.
func (s *MessagingService) RequestThread(ctx context.Context, userID, requestID string) ([]*models.RequestMessage, error) {
	if _, err := s.participantRequest(ctx, userID, requestID); err != nil {
		return nil, err
	}
	return s.requestMsgRepo.ListByRequest(ctx, requestID)
}

// SendRequestMessage posts to a request thread. The receiver is always the
// other participant.
func (s *MessagingService) SendRequestMessage(ctx context.Context, userID, requestID, content string) (*models.RequestMessage, error) {
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}

	req, err := s.participantRequest(ctx, userID, requestID)
	if err != nil {
		return nil, err
	}
	receiverID, ok := req.Counterpart(userID)
	if !ok {
		return nil, ErrRequestNotFunded
	}

	msg := &models.RequestMessage{
		AidRequestID: requestID,
		SenderID:     userID,
		ReceiverID:   receiverID,
		Content:      content,
	}
	if err := s.requestMsgRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	publish(s.publisher, realtime.RequestTopic(requestID), realtime.EventInsert, msg.ID, msg.CreatedAt, msg)
	return msg, nil
}
