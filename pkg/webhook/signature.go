package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const (
	HeaderSignature = "X-Fundalert-Signature"
	HeaderTimestamp = "X-Fundalert-Timestamp"
	HeaderDelivery  = "X-Fundalert-Delivery"
)

// Sign returns the hex HMAC-SHA256 of "<unix timestamp>.<payload>".
func Sign(secret string, payload []byte, at time.Time) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strconv.FormatInt(at.Unix(), 10)))
	h.Write([]byte{'.'})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// SetSignature writes the signature and timestamp headers for payload.
func SetSignature(h http.Header, secret string, payload []byte, at time.Time) {
	h.Set(HeaderTimestamp, strconv.FormatInt(at.Unix(), 10))
	h.Set(HeaderSignature, Sign(secret, payload, at))
}

// Verify checks the signature headers of a received delivery. A maxAge of
// zero skips the freshness check.
func Verify(secret string, payload []byte, h http.Header, maxAge time.Duration, now time.Time) error {
	sig := h.Get(HeaderSignature)
	ts, err := strconv.ParseInt(h.Get(HeaderTimestamp), 10, 64)
	if sig == "" || err != nil {
		return fmt.Errorf("%w: missing signature headers", ErrInvalidSignature)
	}
	at := time.Unix(ts, 0)
	if maxAge > 0 {
		if age := now.Sub(at); age > maxAge || age < -time.Minute {
			return fmt.Errorf("%w: timestamp outside the accepted window", ErrInvalidSignature)
		}
	}
	if !hmac.Equal([]byte(Sign(secret, payload, at)), []byte(sig)) {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidSignature)
	}
	return nil
}
