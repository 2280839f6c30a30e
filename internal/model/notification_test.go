package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for _, s := range []string{
		"booking_request", "booking_confirmed", "booking_cancelled",
		"payment_received", "payout_sent",
		"course_enrolled", "course_completed",
		"new_follower", "product_sold", "membership_renewal",
	} {
		parsed, err := ParseType(s)
		require.NoError(t, err, "type %q", s)
		assert.Equal(t, Type(s), parsed)
	}

	for _, s := range []string{"", "BOOKING_REQUEST", "booking", "unknown"} {
		_, err := ParseType(s)
		assert.Error(t, err, "type %q", s)
	}
}

func TestParseCategory(t *testing.T) {
	parsed, err := ParseCategory("booking")
	require.NoError(t, err)
	assert.Equal(t, CategoryBooking, parsed)

	_, err = ParseCategory("gaming")
	assert.Error(t, err)
}

func TestParsePriority(t *testing.T) {
	parsed, err := ParsePriority("urgent")
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, parsed)

	_, err = ParsePriority("critical")
	assert.Error(t, err)
}

func TestPriorityAtLeast(t *testing.T) {
	assert.True(t, PriorityUrgent.AtLeast(PriorityHigh))
	assert.True(t, PriorityHigh.AtLeast(PriorityHigh))
	assert.False(t, PriorityMedium.AtLeast(PriorityHigh))
	assert.False(t, PriorityLow.AtLeast(PriorityMedium))
	assert.True(t, PriorityLow.AtLeast(PriorityLow))
}
