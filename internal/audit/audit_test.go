package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPayload(t *testing.T) {
	row, err := FromPayload([]byte(`{"type":"token_detected","data":{"tokenAddress":"M1","matchType":"primary_admin","name":"Cat"}}`))
	require.NoError(t, err)
	assert.Equal(t, "token_detected", row.EventType)
	assert.Equal(t, "M1", row.TokenAddress)
	assert.Equal(t, "primary_admin", row.MatchType)
	assert.Equal(t, "Cat", row.Payload["name"])

	row, err = FromPayload([]byte(`{"type":"secondary_popup_trigger","data":{"tokenData":{"tokenAddress":"M2","matchType":"secondary_admin"}}}`))
	require.NoError(t, err)
	assert.Equal(t, "M2", row.TokenAddress)
	assert.Equal(t, "secondary_admin", row.MatchType)

	row, err = FromPayload([]byte(`{"type":"bot_status","data":{"isRunning":true}}`))
	require.NoError(t, err)
	assert.Empty(t, row.TokenAddress)
	assert.Equal(t, true, row.Payload["isRunning"])
}

func TestFromPayload_Invalid(t *testing.T) {
	_, err := FromPayload([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = FromPayload([]byte(`{"data":{}}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
