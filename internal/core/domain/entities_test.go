package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestValidateAssistance(t *testing.T) {
	amount := decimal.RequireFromString("25.00")
	zero := decimal.Zero

	tests := []struct {
		name    string
		kind    AssistanceType
		amount  *decimal.Decimal
		service *string
		want    error
	}{
		{"monetary ok", AssistanceMonetary, &amount, nil, nil},
		{"monetary missing amount", AssistanceMonetary, nil, nil, ErrAmountRequired},
		{"monetary zero amount", AssistanceMonetary, &zero, nil, ErrAmountRequired},
		{"service ok", AssistanceService, nil, ptr("yard work"), nil},
		{"service blank", AssistanceService, nil, ptr("   "), ErrServiceDescriptionRequired},
		{"service with amount", AssistanceService, &amount, ptr("rides"), ErrUnexpectedAmount},
		{"both ok", AssistanceBoth, &amount, ptr("rides"), nil},
		{"both missing service", AssistanceBoth, &amount, nil, ErrServiceDescriptionRequired},
		{"unknown", AssistanceType("barter"), &amount, nil, ErrInvalidAssistanceType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateAssistance(tt.kind, tt.amount, tt.service), tt.want)
		})
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusOpen, StatusFunded))
	assert.True(t, CanTransition(StatusOpen, StatusCompleted))
	assert.True(t, CanTransition(StatusFunded, StatusCompleted))
	assert.True(t, CanTransition(StatusFunded, StatusInProgress))
	assert.True(t, CanTransition(StatusInProgress, StatusCancelled))

	assert.False(t, CanTransition(StatusFunded, StatusOpen))
	assert.False(t, CanTransition(StatusOpen, StatusOpen))
	assert.False(t, CanTransition(StatusCompleted, StatusCancelled))
	assert.False(t, CanTransition(StatusCancelled, StatusOpen))
	assert.False(t, CanTransition(StatusOpen, RequestStatus("archived")))
}

func TestIsBanned(t *testing.T) {
	assert.False(t, IsBanned(nil))
	assert.False(t, IsBanned(ptr(0)))
	assert.True(t, IsBanned(ptr(-1)))
	assert.True(t, IsBanned(ptr(BannedReputation)))
}

func TestEnums(t *testing.T) {
	assert.True(t, CategoryFood.Valid())
	assert.False(t, Category("pets").Valid())
	assert.True(t, UrgencyCritical.Valid())
	assert.False(t, Urgency("urgent").Valid())
	assert.True(t, MessageHelpNeeded.Structured())
	assert.False(t, MessageGeneralDiscussion.Structured())
	assert.True(t, ReasonSafetyConcern.Valid())
	assert.False(t, ReportedMessageType("request").Valid())
}
