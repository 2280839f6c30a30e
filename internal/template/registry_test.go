package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odinnomago/valhalla-notify/internal/model"
)

func TestRenderBookingRequest(t *testing.T) {
	r := NewRegistry()

	rendered, err := r.Render(model.TypeBookingRequest, map[string]interface{}{
		"clientName": "Ana",
		"service":    "DJ set",
	})
	require.NoError(t, err)

	assert.Equal(t, "Nova Solicitação de Booking", rendered.Title)
	assert.Equal(t, "Ana solicitou um booking para DJ set", rendered.Message)
	assert.Equal(t, model.PriorityHigh, rendered.Priority)
	assert.Equal(t, model.CategoryBooking, rendered.Category)
	assert.True(t, rendered.IsActionable)

	require.Len(t, rendered.Actions, 2)
	assert.Equal(t, "accept", rendered.Actions[0].ID)
	assert.Equal(t, "accept_booking", rendered.Actions[0].Action)
	assert.Equal(t, "decline", rendered.Actions[1].ID)
	assert.Equal(t, "decline_booking", rendered.Actions[1].Action)
}

func TestRenderFallbacks(t *testing.T) {
	r := NewRegistry()

	rendered, err := r.Render(model.TypeBookingRequest, nil)
	require.NoError(t, err)
	assert.Equal(t, "Um cliente solicitou um booking para um serviço", rendered.Message)

	rendered, err = r.Render(model.TypeNewFollower, map[string]interface{}{"followerName": ""})
	require.NoError(t, err)
	assert.Equal(t, "Alguém começou a seguir você", rendered.Message)
}

func TestRenderUnknownType(t *testing.T) {
	r := NewRegistry()

	_, err := r.Render(model.Type("mystery"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestRenderAllKnownTypes(t *testing.T) {
	r := NewRegistry()

	for _, typ := range []model.Type{
		model.TypeBookingRequest,
		model.TypeBookingConfirmed,
		model.TypeBookingCancelled,
		model.TypePaymentReceived,
		model.TypePayoutSent,
		model.TypeCourseEnrolled,
		model.TypeCourseCompleted,
		model.TypeNewFollower,
		model.TypeProductSold,
		model.TypeMembershipRenewal,
	} {
		rendered, err := r.Render(typ, nil)
		require.NoError(t, err, "type %s", typ)
		assert.NotEmpty(t, rendered.Title, "type %s", typ)
		assert.NotEmpty(t, rendered.Message, "type %s", typ)
	}
}

func TestSanitizeStripsControlCharacters(t *testing.T) {
	r := NewRegistry()

	rendered, err := r.Render(model.TypeNewFollower, map[string]interface{}{
		"followerName": "Eve\n\x1b[2Jil",
	})
	require.NoError(t, err)
	assert.Equal(t, "Eve[2Jil começou a seguir você", rendered.Message)
}

func TestSanitizeCapsLength(t *testing.T) {
	r := NewRegistry()

	long := make([]byte, 0, 600)
	for i := 0; i < 600; i++ {
		long = append(long, 'a')
	}

	rendered, err := r.Render(model.TypeNewFollower, map[string]interface{}{
		"followerName": string(long),
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(rendered.Message), maxFieldLen+len(" começou a seguir você"))
}

func TestRenderNonStringPayloadValue(t *testing.T) {
	r := NewRegistry()

	rendered, err := r.Render(model.TypePaymentReceived, map[string]interface{}{
		"amount":    1500,
		"payerName": "Bruno",
	})
	require.NoError(t, err)
	assert.Equal(t, "Você recebeu 1500 de Bruno", rendered.Message)
}
