package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// instantProvider returns a mock provider that records delays instead of sleeping
func instantProvider(delays *[]time.Duration) *MockPaymentProvider {
	p := NewMockPaymentProvider(2*time.Second, 3*time.Second)
	p.sleep = func(ctx context.Context, d time.Duration) error {
		if delays != nil {
			*delays = append(*delays, d)
		}
		return ctx.Err()
	}
	return p
}

func TestValidCard(t *testing.T) {
	assert.True(t, ValidCard("4242 4242 4242 4242"))
	assert.True(t, ValidCard("5555555555554444"))
	assert.True(t, ValidCard("3782 822463 10005"))
	assert.True(t, ValidCard("1234 5678 9012 3456"))
	assert.False(t, ValidCard("1234"))
	assert.False(t, ValidCard("4242-4242-4242-4242"))
	assert.False(t, ValidCard(""))
}

func TestMockChargeFormatAndDelay(t *testing.T) {
	var delays []time.Duration
	p := instantProvider(&delays)

	res, err := p.Charge(context.Background(), ChargeRequest{
		AidRequestID: "r1",
		Amount:       decimal.RequireFromString("25.00"),
		CardNumber:   "4242 4242 4242 4242",
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^mock_tx_\d+_[0-9a-z]{9}$`), res.TransactionID)
	assert.Equal(t, "mock", res.Provider)
	require.Len(t, delays, 1)
	assert.GreaterOrEqual(t, delays[0], 2*time.Second)
	assert.LessOrEqual(t, delays[0], 3*time.Second)
}

func TestMockChargeRejectsBadCardWithoutDelay(t *testing.T) {
	var delays []time.Duration
	p := instantProvider(&delays)

	_, err := p.Charge(context.Background(), ChargeRequest{CardNumber: "1111"})
	assert.ErrorIs(t, err, ErrInvalidCard)
	assert.Empty(t, delays)
}

func TestMockChargeHonorsCancellation(t *testing.T) {
	p := NewMockPaymentProvider(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Charge(ctx, ChargeRequest{CardNumber: "4242424242424242"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockRelease(t *testing.T) {
	var delays []time.Duration
	p := instantProvider(&delays)

	res, err := p.Release(context.Background(), "r1")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^escrow_release_\d+$`), res.TransactionID)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, delays)
}
