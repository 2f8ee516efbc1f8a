package qr_test

import (
	"testing"

	"ms-marketplace/internal/tickets/qr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	gen := qr.NewGenerator("gate-secret")
	payload := qr.Payload{TicketID: "t1", OrderID: "ord1", EventID: "evt1", Serial: 7}

	encoded, err := gen.EncodePayload(payload)
	require.NoError(t, err)
	assert.NotContains(t, encoded, "t1", "payload must not be readable without the key")

	decoded, err := gen.DecodePayload(encoded)
	require.NoError(t, err)
	assert.Equal(t, payload, *decoded)
}

func TestDecodeWithWrongSecret(t *testing.T) {
	gen := qr.NewGenerator("gate-secret")
	other := qr.NewGenerator("different-secret")

	encoded, err := gen.EncodePayload(qr.Payload{TicketID: "t1"})
	require.NoError(t, err)

	decoded, err := other.DecodePayload(encoded)
	if err == nil {
		// CFB decryption with the wrong key yields garbage, not an error;
		// the JSON unmarshal is what usually fails
		assert.NotEqual(t, "t1", decoded.TicketID)
	}
}

func TestGenerateEncryptedQRProducesPNG(t *testing.T) {
	gen := qr.NewGenerator("gate-secret")

	png, err := gen.GenerateEncryptedQR(qr.Payload{TicketID: "t1", OrderID: "ord1"})
	require.NoError(t, err)
	require.NotEmpty(t, png)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	gen := qr.NewGenerator("gate-secret")

	_, err := gen.DecodePayload("%%%not-base64%%%")
	assert.Error(t, err)

	_, err = gen.DecodePayload("c2hvcnQ")
	assert.Error(t, err)
}
