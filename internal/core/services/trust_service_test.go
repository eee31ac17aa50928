package services

import (
	"context"
	"encoding/json"
	"testing"

	"aidmap-api/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitVerificationRequiredKeys(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "maria")

	_, err := env.verification.Submit(ctx, user, &SubmitVerificationInput{VerificationType: "selfie"})
	assert.ErrorIs(t, err, ErrInvalidVerificationType)

	_, err = env.verification.Submit(ctx, user, &SubmitVerificationInput{
		VerificationType: domain.VerificationPhone,
		VerificationData: json.RawMessage(`{"phone_number": "  "}`),
	})
	assert.ErrorIs(t, err, ErrPhoneNumberRequired)

	_, err = env.verification.Submit(ctx, user, &SubmitVerificationInput{
		VerificationType: domain.VerificationAddress,
		VerificationData: json.RawMessage(`{"city": "Houston"}`),
	})
	assert.ErrorIs(t, err, ErrAddressRequired)

	_, err = env.verification.Submit(ctx, user, &SubmitVerificationInput{
		VerificationType: domain.VerificationIDDocument,
		VerificationData: json.RawMessage(`[1,2]`),
	})
	assert.ErrorIs(t, err, ErrInvalidVerificationData)

	v, err := env.verification.Submit(ctx, user, &SubmitVerificationInput{
		VerificationType: domain.VerificationPhone,
		VerificationData: json.RawMessage(`{"phone_number": "+1 555 0100"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationPending, v.Status)

	voucher, err := env.verification.Submit(ctx, user, &SubmitVerificationInput{
		VerificationType: domain.VerificationCommunityVoucher,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(voucher.VerificationData))

	mine, err := env.verification.ListMine(ctx, user)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestReviewVerificationMarksProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "maria")
	admin := env.register(t, "admin")

	v, err := env.verification.Submit(ctx, user, &SubmitVerificationInput{
		VerificationType: domain.VerificationAddress,
		VerificationData: json.RawMessage(`{"address": "1 Main St"}`),
	})
	require.NoError(t, err)

	pending, err := env.verification.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = env.verification.Review(ctx, admin, v.ID, domain.VerificationPending)
	assert.ErrorIs(t, err, ErrInvalidVerificationState)

	reviewed, err := env.verification.Review(ctx, admin, v.ID, domain.VerificationVerified)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationVerified, reviewed.Status)
	assert.NotNil(t, reviewed.VerifiedAt)
	require.NotNil(t, reviewed.VerifiedBy)
	assert.Equal(t, admin, *reviewed.VerifiedBy)

	profile, err := env.profiles.Get(ctx, user)
	require.NoError(t, err)
	assert.True(t, profile.IsVerified)

	_, err = env.verification.Review(ctx, admin, v.ID, domain.VerificationRejected)
	assert.ErrorIs(t, err, ErrVerificationNotPending)
}

func TestRejectedVerificationLeavesProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "maria")

	v, err := env.verification.Submit(ctx, user, &SubmitVerificationInput{VerificationType: domain.VerificationIDDocument})
	require.NoError(t, err)

	_, err = env.verification.Review(ctx, "reviewer", v.ID, domain.VerificationRejected)
	require.NoError(t, err)

	profile, err := env.profiles.Get(ctx, user)
	require.NoError(t, err)
	assert.False(t, profile.IsVerified)
}

func TestReportAndReviewMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.register(t, "maria")
	reporter := env.register(t, "sam")
	nid := joinedNeighborhood(t, env, author)

	msg, err := env.messaging.PostCommunity(ctx, author, nid, &CommunityPostInput{Content: "buy my stuff"})
	require.NoError(t, err)

	_, err = env.moderation.Report(ctx, reporter, &ReportInput{
		MessageID: "missing", MessageType: domain.ReportedCommunity, ReportReason: domain.ReasonSpam,
	})
	assert.ErrorIs(t, err, ErrReportedMsgNotFound)

	_, err = env.moderation.Report(ctx, reporter, &ReportInput{
		MessageID: msg.ID, MessageType: domain.ReportedCommunity, ReportReason: "rude",
	})
	assert.ErrorIs(t, err, ErrInvalidReportReason)

	_, err = env.moderation.Report(ctx, reporter, &ReportInput{
		MessageID: msg.ID, MessageType: "forum", ReportReason: domain.ReasonSpam,
	})
	assert.ErrorIs(t, err, ErrInvalidReportTarget)

	_, err = env.moderation.Report(ctx, author, &ReportInput{
		MessageID: msg.ID, MessageType: domain.ReportedCommunity, ReportReason: domain.ReasonSpam,
	})
	assert.ErrorIs(t, err, ErrCannotReportOwn)

	desc := "selling in the help channel"
	report, err := env.moderation.Report(ctx, reporter, &ReportInput{
		MessageID: msg.ID, MessageType: domain.ReportedCommunity, ReportReason: domain.ReasonSpam, Description: &desc,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReportPending, report.Status)

	pending := domain.ReportPending
	list, err := env.moderation.List(ctx, &pending)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = env.moderation.Review(ctx, "admin", report.ID, domain.ReportPending)
	assert.ErrorIs(t, err, ErrInvalidReportStatus)

	reviewed, err := env.moderation.Review(ctx, "admin", report.ID, domain.ReportResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportResolved, reviewed.Status)
	assert.NotNil(t, reviewed.ReviewedAt)

	list, err = env.moderation.List(ctx, &pending)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReportDirectMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sender := env.register(t, "maria")
	receiver := env.register(t, "sam")

	dm, err := env.messaging.SendDirect(ctx, sender, receiver, "send me your card number")
	require.NoError(t, err)

	report, err := env.moderation.Report(ctx, receiver, &ReportInput{
		MessageID: dm.ID, MessageType: domain.ReportedDirect, ReportReason: domain.ReasonScam,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReportedDirect, report.MessageType)
}
