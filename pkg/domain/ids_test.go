package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	raw := uuid.NewString()

	userID, err := ParseUserID(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, userID.String())

	bankID, err := ParseBankID(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, bankID.String())
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := ParseUserID("not-a-uuid")
	require.Error(t, err)

	_, err = ParseDonationID("")
	require.Error(t, err)
}

func TestIsNil(t *testing.T) {
	var zero BankID
	assert.True(t, zero.IsNil())
	assert.False(t, NewBankID().IsNil())
}

func TestJSONEncoding(t *testing.T) {
	id := NewRequestID()

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(data))

	var decoded RequestID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}
