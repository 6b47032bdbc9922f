package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries the webhook signature.
const SignatureHeader = "X-Platform-Signature"

// SignatureTolerance bounds timestamp skew; older signatures are rejected to
// stop replays.
const SignatureTolerance = 5 * time.Minute

var (
	ErrMissingSignature = errors.New("webhooks: missing signature")
	ErrInvalidSignature = errors.New("webhooks: invalid signature")
	ErrStaleSignature   = errors.New("webhooks: signature timestamp outside tolerance")
)

// Sign computes the signature header value for a payload: HMAC-SHA256 over
// "<unix-ts>.<body>", rendered as "t=<unix-ts>,v1=<hex>".
func Sign(secret string, ts time.Time, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

// VerifySignature checks a signature header against the raw body. The header
// format is "t=<unix-ts>,v1=<hex hmac>"; comparison is constant-time.
func VerifySignature(secret, header string, body []byte, now time.Time) error {
	if header == "" {
		return ErrMissingSignature
	}
	var tsPart, sigPart string
	for _, field := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(field), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			tsPart = v
		case "v1":
			sigPart = v
		}
	}
	if tsPart == "" || sigPart == "" {
		return ErrInvalidSignature
	}
	unix, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	ts := time.Unix(unix, 0)
	if d := now.Sub(ts); d > SignatureTolerance || d < -SignatureTolerance {
		return ErrStaleSignature
	}

	expected := Sign(secret, ts, body)
	_, expectedSig, _ := strings.Cut(expected, "v1=")
	if !hmac.Equal([]byte(expectedSig), []byte(sigPart)) {
		return ErrInvalidSignature
	}
	return nil
}
