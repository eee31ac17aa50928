package services

import (
	"context"
	"testing"

	"aidmap-api/internal/adapters/realtime"
	"aidmap-api/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroceriesFundAndConfirmReceipt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "maria")
	donor := env.register(t, "sam")

	req := env.postGroceries(t, owner)
	assert.Equal(t, "Groceries", req.Title)
	assert.True(t, req.Amount.Equal(decimal.RequireFromString("25.00")))

	sub := env.hub.Subscribe(realtime.TopicOpenRequests, 4)
	defer env.hub.Unsubscribe(sub)

	res := env.fund(t, donor, req.ID)
	assert.Regexp(t, `^mock_tx_\d+_[0-9a-z]{9}$`, res.TransactionID)
	assert.Equal(t, domain.StatusFunded, res.Request.Status)
	require.NotNil(t, res.Request.DonorID)
	assert.Equal(t, donor, *res.Request.DonorID)
	assert.NotNil(t, res.Request.FundedAt)

	ev := recv(t, sub)
	assert.Equal(t, realtime.EventUpdate, ev.Type)
	assert.Equal(t, req.ID, ev.ID)

	txs, err := env.transactionRepo.ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.TxConfirmed, txs[0].Status)
	assert.Equal(t, res.TransactionID, txs[0].ExternalRef)
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("25")))

	open, stale := env.maps.LoadOpenRequests(ctx)
	assert.False(t, stale)
	assert.Empty(t, open)

	_, err = env.aid.ConfirmReceipt(ctx, donor, req.ID)
	assert.ErrorIs(t, err, ErrNotRequestOwner)

	done, err := env.aid.ConfirmReceipt(ctx, owner, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	txs, err = env.transactionRepo.ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.TxReleased, txs[0].Status)
	assert.NotNil(t, txs[0].ReleasedAt)

	_, err = env.aid.ConfirmReceipt(ctx, owner, req.ID)
	assert.ErrorIs(t, err, ErrRequestNotFunded)
}

func TestCannotFundOwnRequest(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "maria")
	req := env.postGroceries(t, owner)

	_, err := env.funding.Fund(context.Background(), owner, req.ID, &FundInput{CardNumber: "4242424242424242"})
	assert.ErrorIs(t, err, ErrCannotFundOwn)

	after, err := env.aid.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, after.Status)
}

func TestFundRejectsInvalidCard(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "maria")
	donor := env.register(t, "sam")
	req := env.postGroceries(t, owner)

	_, err := env.funding.Fund(context.Background(), donor, req.ID, &FundInput{CardNumber: "4242"})
	assert.ErrorIs(t, err, ErrInvalidCard)

	after, err := env.aid.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, after.Status)
	assert.Nil(t, after.DonorID)
}

func TestFundRejectsBannedDonor(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "maria")
	donor := env.register(t, "sam")
	env.setReputation(t, donor, domain.BannedReputation)
	req := env.postGroceries(t, owner)

	_, err := env.funding.Fund(context.Background(), donor, req.ID, &FundInput{CardNumber: "4242424242424242"})
	assert.ErrorIs(t, err, ErrDonorBanned)
}

func TestFundTwiceFails(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "maria")
	first := env.register(t, "sam")
	second := env.register(t, "lee")
	req := env.postGroceries(t, owner)

	env.fund(t, first, req.ID)
	_, err := env.funding.Fund(context.Background(), second, req.ID, &FundInput{CardNumber: "4242424242424242"})
	assert.ErrorIs(t, err, ErrRequestNotOpen)

	txs, err := env.transactionRepo.ListByRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestOfferHelpOnServiceRequest(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "maria")
	helper := env.register(t, "sam")
	req := env.postService(t, owner)

	res, err := env.funding.Fund(context.Background(), helper, req.ID, &FundInput{})
	require.NoError(t, err)
	assert.Empty(t, res.TransactionID)
	assert.Equal(t, domain.StatusFunded, res.Request.Status)

	txs, err := env.transactionRepo.ListByRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestFundUnknownRequest(t *testing.T) {
	env := newTestEnv(t)
	donor := env.register(t, "sam")

	_, err := env.funding.Fund(context.Background(), donor, "missing", &FundInput{CardNumber: "4242424242424242"})
	assert.ErrorIs(t, err, ErrAidRequestNotFound)
}
