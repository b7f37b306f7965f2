package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscription_IsActiveNow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Minute)

	tests := []struct {
		name      string
		status    SubscriptionStatus
		periodEnd *time.Time
		want      bool
	}{
		{name: "active with future period", status: StatusActive, periodEnd: &future, want: true},
		{name: "trialing with future period", status: StatusTrialing, periodEnd: &future, want: true},
		{name: "past_due with future period", status: StatusPastDue, periodEnd: &future, want: true},
		{name: "active with past period", status: StatusActive, periodEnd: &past, want: false},
		{name: "active period ends exactly now", status: StatusActive, periodEnd: &now, want: false},
		{name: "active without period", status: StatusActive, periodEnd: nil, want: false},
		{name: "canceled with future period", status: StatusCanceled, periodEnd: &future, want: false},
		{name: "unpaid with future period", status: StatusUnpaid, periodEnd: &future, want: false},
		{name: "paused with future period", status: StatusPaused, periodEnd: &future, want: false},
		{name: "incomplete with future period", status: StatusIncomplete, periodEnd: &future, want: false},
		{name: "incomplete_expired", status: StatusIncompleteExpired, periodEnd: &future, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Subscription{Status: tt.status, CurrentPeriodEnd: tt.periodEnd}
			assert.Equal(t, tt.want, s.IsActiveNow(now))
		})
	}
}

func TestSubscription_IsActiveNow_Nil(t *testing.T) {
	var s *Subscription
	assert.False(t, s.IsActiveNow(time.Now()))
}

func TestParseSubscriptionStatus(t *testing.T) {
	assert.Equal(t, StatusActive, ParseSubscriptionStatus("active"))
	assert.Equal(t, StatusPastDue, ParseSubscriptionStatus("past_due"))
	assert.Equal(t, StatusIncomplete, ParseSubscriptionStatus(""))
	assert.Equal(t, StatusIncomplete, ParseSubscriptionStatus("something_new"))
}

func TestProfile_HasValidAPIToken(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)

	assert.True(t, (&Profile{APIToken: "tok", APITokenExpiresAt: &later}).HasValidAPIToken(now))
	assert.False(t, (&Profile{APIToken: "tok", APITokenExpiresAt: &earlier}).HasValidAPIToken(now))
	assert.False(t, (&Profile{APIToken: "", APITokenExpiresAt: &later}).HasValidAPIToken(now))
	assert.False(t, (&Profile{APIToken: "tok"}).HasValidAPIToken(now))
}

func TestProduct_Purchasable(t *testing.T) {
	assert.True(t, (&Product{Active: true, StripePriceID: "price_1"}).Purchasable())
	assert.False(t, (&Product{Active: false, StripePriceID: "price_1"}).Purchasable())
	assert.False(t, (&Product{Active: true}).Purchasable())
}
