package services

import (
	"context"
	"strings"
	"testing"

	"aidmap-api/internal/adapters/realtime"
	"aidmap-api/internal/core/domain"
	"aidmap-api/internal/pkg/geo"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostDefaultsAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "maria")
	sub := env.hub.Subscribe(realtime.TopicOpenRequests, 4)
	defer env.hub.Unsubscribe(sub)

	amount := decimal.RequireFromString("12.345")
	req, err := env.aid.Post(context.Background(), owner, &PostAidRequestInput{
		Title:       "  Diapers ",
		Description: "Size 4",
		Amount:      &amount,
		Latitude:    40.7,
		Longitude:   -74.0,
	})
	require.NoError(t, err)

	assert.Equal(t, "Diapers", req.Title)
	assert.Equal(t, domain.CategoryFood, req.Category)
	assert.Equal(t, domain.UrgencyMedium, req.Urgency)
	assert.Equal(t, domain.AssistanceMonetary, req.AssistanceType)
	assert.Equal(t, domain.StatusOpen, req.Status)
	require.NotNil(t, req.Amount)
	assert.True(t, req.Amount.Equal(decimal.RequireFromString("12.35")))

	ev := recv(t, sub)
	assert.Equal(t, realtime.EventInsert, ev.Type)
	assert.Equal(t, req.ID, ev.ID)
}

func TestPostValidatesInvariants(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "maria")
	ctx := context.Background()
	zero := decimal.Zero
	ten := decimal.NewFromInt(10)
	blank := "   "

	cases := []struct {
		name  string
		input PostAidRequestInput
		want  error
	}{
		{"missing title", PostAidRequestInput{Description: "d", Amount: &ten}, ErrValidation},
		{"missing description", PostAidRequestInput{Title: "t", Amount: &ten}, ErrValidation},
		{"monetary without amount", PostAidRequestInput{Title: "t", Description: "d"}, domain.ErrAmountRequired},
		{"monetary zero amount", PostAidRequestInput{Title: "t", Description: "d", Amount: &zero}, domain.ErrAmountRequired},
		{"service without description", PostAidRequestInput{Title: "t", Description: "d", AssistanceType: domain.AssistanceService, ServiceDescription: &blank}, domain.ErrServiceDescriptionRequired},
		{"both without service", PostAidRequestInput{Title: "t", Description: "d", AssistanceType: domain.AssistanceBoth, Amount: &ten}, domain.ErrServiceDescriptionRequired},
		{"bad category", PostAidRequestInput{Title: "t", Description: "d", Category: "pets", Amount: &ten}, ErrInvalidCategory},
		{"bad urgency", PostAidRequestInput{Title: "t", Description: "d", Urgency: "whenever", Amount: &ten}, ErrInvalidUrgency},
		{"bad location", PostAidRequestInput{Title: "t", Description: "d", Amount: &ten, Latitude: 91}, ErrInvalidLocation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := tc.input
			_, err := env.aid.Post(ctx, owner, &input)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestPostBlockedForNegativeReputation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "maria")
	env.setReputation(t, owner, -1)

	amount := decimal.NewFromInt(5)
	_, err := env.aid.Post(context.Background(), owner, &PostAidRequestInput{
		Title: "t", Description: "d", Amount: &amount, Latitude: 1, Longitude: 1,
	})
	assert.ErrorIs(t, err, ErrPostingBlocked)
}

func TestEditOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "maria")
	other := env.register(t, "sam")
	req := env.postGroceries(t, owner)

	title := "Groceries and milk"
	_, err := env.aid.Edit(ctx, other, req.ID, &EditAidRequestInput{Title: &title})
	assert.ErrorIs(t, err, ErrNotRequestOwner)

	edited, err := env.aid.Edit(ctx, owner, req.ID, &EditAidRequestInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, edited.Title)
	assert.Equal(t, 1, edited.EditCount)
	assert.NotNil(t, edited.LastEditedAt)

	edited, err = env.aid.Edit(ctx, owner, req.ID, &EditAidRequestInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, 2, edited.EditCount)
}

func TestEditRevalidatesMergedRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "maria")
	req := env.postGroceries(t, owner)

	service := domain.AssistanceService
	_, err := env.aid.Edit(ctx, owner, req.ID, &EditAidRequestInput{AssistanceType: &service})
	assert.ErrorIs(t, err, domain.ErrServiceDescriptionRequired)

	desc := "Help carrying bags"
	edited, err := env.aid.Edit(ctx, owner, req.ID, &EditAidRequestInput{AssistanceType: &service, ServiceDescription: &desc})
	require.NoError(t, err)
	assert.Nil(t, edited.Amount)
	require.NotNil(t, edited.ServiceDescription)
	assert.Equal(t, desc, *edited.ServiceDescription)
}

func TestEditKeepsPricingOnceFunded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "maria")
	donor := env.register(t, "sam")
	req := env.postGroceries(t, owner)
	env.fund(t, donor, req.ID)

	amount := decimal.NewFromInt(1000)
	_, err := env.aid.Edit(ctx, owner, req.ID, &EditAidRequestInput{Amount: &amount})
	assert.ErrorIs(t, err, ErrRequestNotOpen)

	service := domain.AssistanceBoth
	desc := "Carry the bags too"
	_, err = env.aid.Edit(ctx, owner, req.ID, &EditAidRequestInput{AssistanceType: &service, ServiceDescription: &desc})
	assert.ErrorIs(t, err, ErrRequestNotOpen)

	same := decimal.RequireFromString("25")
	title := "Groceries for the week"
	edited, err := env.aid.Edit(ctx, owner, req.ID, &EditAidRequestInput{Title: &title, Amount: &same})
	require.NoError(t, err)
	assert.Equal(t, title, edited.Title)
	assert.Equal(t, domain.StatusFunded, edited.Status)
	require.NotNil(t, edited.Amount)
	assert.True(t, edited.Amount.Equal(decimal.RequireFromString("25.00")))

	txs, err := env.transactionRepo.ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Amount.Equal(*edited.Amount))
}

func TestViewHidesLocationFromOutsiders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "maria")
	donor := env.register(t, "sam")
	stranger := env.register(t, "lee")

	address := "12 Elm St"
	amount := decimal.RequireFromString("25.00")
	req, err := env.aid.Post(ctx, owner, &PostAidRequestInput{
		Title:       "Groceries",
		Description: "Need groceries for the week",
		Amount:      &amount,
		Latitude:    40.7128,
		Longitude:   -74.0060,
		Address:     &address,
	})
	require.NoError(t, err)
	env.fund(t, donor, req.ID)

	for _, viewer := range []string{"", stranger} {
		seen, err := env.aid.View(ctx, viewer, false, req.ID)
		require.NoError(t, err)
		assert.NotEqual(t, 40.7128, seen.Latitude)
		assert.InDelta(t, 40.7128, seen.Latitude, geo.MaxPrivacyOffset)
		assert.InDelta(t, -74.0060, seen.Longitude, geo.MaxPrivacyOffset)
		assert.Nil(t, seen.Address)
	}

	for _, viewer := range []string{owner, donor} {
		seen, err := env.aid.View(ctx, viewer, false, req.ID)
		require.NoError(t, err)
		assert.Equal(t, 40.7128, seen.Latitude)
		require.NotNil(t, seen.Address)
		assert.Equal(t, address, *seen.Address)
	}

	seen, err := env.aid.View(ctx, stranger, true, req.ID)
	require.NoError(t, err)
	assert.Equal(t, -74.0060, seen.Longitude)

	stored, err := env.aid.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.7128, stored.Latitude)
}

func TestSetStatusRequiresDonorForFunding(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "maria")
	req := env.postGroceries(t, owner)

	_, err := env.aid.SetStatus(ctx, req.ID, domain.StatusFunded)
	assert.ErrorIs(t, err, ErrDonorRequired)
	_, err = env.aid.SetStatus(ctx, req.ID, domain.StatusInProgress)
	assert.ErrorIs(t, err, ErrDonorRequired)

	unchanged, err := env.aid.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, unchanged.Status)
	assert.Nil(t, unchanged.FundedAt)

	completed, err := env.aid.SetStatus(ctx, req.ID, domain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, completed.Status)
}

func TestCloseRecordsFulfillment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "maria")
	other := env.register(t, "sam")
	req := env.postGroceries(t, owner)

	_, err := env.aid.Close(ctx, other, false, req.ID, &CloseAidRequestInput{})
	assert.ErrorIs(t, err, ErrNotRequestOwner)

	_, err = env.aid.Close(ctx, owner, false, req.ID, &CloseAidRequestInput{FulfillmentStatus: "maybe"})
	assert.ErrorIs(t, err, ErrInvalidFulfillment)

	notes := "  Neighbors covered it  "
	closed, err := env.aid.Close(ctx, owner, false, req.ID, &CloseAidRequestInput{
		FulfillmentStatus: domain.FulfillmentUnfulfilled,
		ClosureNotes:      &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, closed.Status)
	require.NotNil(t, closed.FulfillmentStatus)
	assert.Equal(t, domain.FulfillmentUnfulfilled, *closed.FulfillmentStatus)
	require.NotNil(t, closed.ClosureNotes)
	assert.Equal(t, "Neighbors covered it", *closed.ClosureNotes)
	assert.NotNil(t, closed.ClosedAt)
	assert.NotNil(t, closed.CompletedAt)

	_, err = env.aid.Close(ctx, owner, false, req.ID, &CloseAidRequestInput{})
	assert.ErrorIs(t, err, ErrRequestClosed)

	title := "late edit"
	_, err = env.aid.Edit(ctx, owner, req.ID, &EditAidRequestInput{Title: &title})
	assert.ErrorIs(t, err, ErrRequestClosed)
}

func TestCloseDefaultsToFulfilledAndAdminMayClose(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "maria")
	admin := env.register(t, "admin")
	req := env.postGroceries(t, owner)

	blank := "   "
	closed, err := env.aid.Close(context.Background(), admin, true, req.ID, &CloseAidRequestInput{ClosureNotes: &blank})
	require.NoError(t, err)
	require.NotNil(t, closed.FulfillmentStatus)
	assert.Equal(t, domain.FulfillmentFulfilled, *closed.FulfillmentStatus)
	assert.Nil(t, closed.ClosureNotes)
}

func TestCancelAndStatusRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "maria")
	donor := env.register(t, "sam")
	req := env.postGroceries(t, owner)

	_, err := env.aid.StartProgress(ctx, owner, req.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	env.fund(t, donor, req.ID)

	started, err := env.aid.StartProgress(ctx, donor, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, started.Status)

	_, err = env.aid.SetStatus(ctx, req.ID, domain.StatusFunded)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	cancelled, err := env.aid.Cancel(ctx, owner, false, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	_, err = env.aid.Cancel(ctx, owner, false, req.ID)
	assert.ErrorIs(t, err, ErrRequestClosed)
	_, err = env.aid.SetStatus(ctx, req.ID, domain.StatusOpen)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestAttachProof(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "maria")
	donor := env.register(t, "sam")
	stranger := env.register(t, "lee")
	req := env.postGroceries(t, owner)
	env.fund(t, donor, req.ID)

	_, err := env.aid.AttachProof(ctx, stranger, req.ID, "receipt.jpg", "image/jpeg", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNotParticipant)

	updated, err := env.aid.AttachProof(ctx, donor, req.ID, "Receipt.JPG", "image/jpeg", strings.NewReader("jpeg bytes"))
	require.NoError(t, err)
	require.NotNil(t, updated.ProofOfDeliveryURL)
	assert.True(t, strings.HasPrefix(*updated.ProofOfDeliveryURL, "https://proofs.test/proofs/"+req.ID+"/"))
	assert.True(t, strings.HasSuffix(*updated.ProofOfDeliveryURL, ".jpg"))
	assert.Len(t, env.proofs.files, 1)
}

func TestListMineAndFundedBy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "maria")
	donor := env.register(t, "sam")
	first := env.postGroceries(t, owner)
	env.postService(t, owner)
	env.fund(t, donor, first.ID)

	mine, err := env.aid.ListMine(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	funded, err := env.aid.ListFundedBy(ctx, donor)
	require.NoError(t, err)
	require.Len(t, funded, 1)
	assert.Equal(t, first.ID, funded[0].ID)
}
