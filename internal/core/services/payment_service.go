package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Payment errors
var (
	ErrInvalidCard = errors.New("invalid card number")
)

// ChargeRequest is a donor payment toward one aid request
type ChargeRequest struct {
	AidRequestID string
	DonorID      string
	Amount       decimal.Decimal
	CardNumber   string
}

// ChargeResult identifies a processed charge or release
type ChargeResult struct {
	TransactionID string
	Provider      string
	ProcessedAt   time.Time
}

// PaymentProvider moves money for funded requests
type PaymentProvider interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Release(ctx context.Context, aidRequestID string) (*ChargeResult, error)
}

var (
	testCards = map[string]bool{
		"4242424242424242": true, // Visa
		"5555555555554444": true, // Mastercard
		"378282246310005":  true, // Amex
	}
	sixteenDigits = regexp.MustCompile(`^\d{16}$`)
	whitespace    = regexp.MustCompile(`\s`)
)

// ValidCard reports whether the mock processor accepts number
func ValidCard(number string) bool {
	clean := whitespace.ReplaceAllString(number, "")
	return testCards[clean] || sixteenDigits.MatchString(clean)
}

// MockPaymentProvider simulates a card processor with escrow
type MockPaymentProvider struct {
	minDelay     time.Duration
	maxDelay     time.Duration
	releaseDelay time.Duration

	mu     sync.Mutex
	random *rand.Rand
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
}

// NewMockPaymentProvider creates a mock processor whose charges take a
// uniform delay in [minDelay, maxDelay].
func NewMockPaymentProvider(minDelay, maxDelay time.Duration) *MockPaymentProvider {
	return &MockPaymentProvider{
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		releaseDelay: 1500 * time.Millisecond,
		random:       rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:        sleepContext,
		now:          time.Now,
	}
}

func (p *MockPaymentProvider) Name() string {
	return "mock"
}

// Charge validates the card, waits out the processing delay and returns a
// mock transaction reference.
func (p *MockPaymentProvider) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if !ValidCard(req.CardNumber) {
		return nil, ErrInvalidCard
	}

	if err := p.sleep(ctx, p.chargeDelay()); err != nil {
		return nil, err
	}

	now := p.now()
	return &ChargeResult{
		TransactionID: fmt.Sprintf("mock_tx_%d_%s", now.UnixMilli(), p.suffix()),
		Provider:      p.Name(),
		ProcessedAt:   now,
	}, nil
}

// Release simulates paying held funds out to the recipient
func (p *MockPaymentProvider) Release(ctx context.Context, aidRequestID string) (*ChargeResult, error) {
	if err := p.sleep(ctx, p.releaseDelay); err != nil {
		return nil, err
	}

	now := p.now()
	return &ChargeResult{
		TransactionID: fmt.Sprintf("escrow_release_%d", now.UnixMilli()),
		Provider:      p.Name(),
		ProcessedAt:   now,
	}, nil
}

func (p *MockPaymentProvider) chargeDelay() time.Duration {
	span := p.maxDelay - p.minDelay
	if span <= 0 {
		return p.minDelay
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.minDelay + time.Duration(p.random.Int63n(int64(span)+1))
}

// suffix returns 9 random base-36 characters
func (p *MockPaymentProvider) suffix() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	for b.Len() < 9 {
		b.WriteString(strconv.FormatInt(p.random.Int63n(36), 36))
	}
	return b.String()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
