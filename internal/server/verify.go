package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// signatureVersion prefixes every Slack signature base string.
const signatureVersion = "v0"

// signatureMaxAge bounds how stale a signed request may be.
const signatureMaxAge = 5 * time.Minute

// verifySignature checks a request body against Slack's signing scheme:
// hex(HMAC-SHA256(secret, "v0:<timestamp>:<body>")) compared in constant
// time, with the timestamp bounded to reject replays.
func verifySignature(secret, timestamp, signature string, body []byte, now time.Time) error {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("parsing request timestamp: %w", err)
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > signatureMaxAge || age < -signatureMaxAge {
		return fmt.Errorf("request timestamp outside allowed window")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s:%s:", signatureVersion, timestamp)
	mac.Write(body)
	expected := signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
