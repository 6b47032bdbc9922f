package webhooks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureRoundTrip(t *testing.T) {
	body := []byte(`{"type":"video.live_stream.active","data":{"id":"p1"}}`)
	now := time.Unix(1700000000, 0)

	header := Sign("shh", now, body)
	require.NoError(t, VerifySignature("shh", header, body, now))
}

func TestSignatureRejectsTamperedBody(t *testing.T) {
	now := time.Unix(1700000000, 0)
	header := Sign("shh", now, []byte(`{"a":1}`))

	err := VerifySignature("shh", header, []byte(`{"a":2}`), now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestSignatureRejectsWrongSecret(t *testing.T) {
	now := time.Unix(1700000000, 0)
	body := []byte(`{}`)
	header := Sign("shh", now, body)

	err := VerifySignature("other", header, body, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestSignatureRejectsStaleTimestamp(t *testing.T) {
	signed := time.Unix(1700000000, 0)
	body := []byte(`{}`)
	header := Sign("shh", signed, body)

	err := VerifySignature("shh", header, body, signed.Add(SignatureTolerance+time.Second))
	assert.ErrorIs(t, err, ErrStaleSignature)

	// Within tolerance is fine.
	assert.NoError(t, VerifySignature("shh", header, body, signed.Add(SignatureTolerance-time.Second)))
}

func TestSignatureRejectsMissingOrMalformedHeader(t *testing.T) {
	now := time.Now()
	assert.ErrorIs(t, VerifySignature("shh", "", nil, now), ErrMissingSignature)
	assert.ErrorIs(t, VerifySignature("shh", "v1=abc", nil, now), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("shh", "t=notanumber,v1=abc", nil, now), ErrInvalidSignature)
}
