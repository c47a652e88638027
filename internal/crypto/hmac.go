package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// HMACAuth holds the credentials for signed Binance REST requests.
type HMACAuth struct {
	Key    string // API key, sent as X-MBX-APIKEY
	Secret string // API secret, the raw HMAC key
}

// APIKeyHeader is the request header carrying the API key.
const APIKeyHeader = "X-MBX-APIKEY"

// SignQuery appends the millisecond timestamp and an HMAC-SHA256 hex
// signature to params and returns the encoded query string. The signature
// covers the encoded parameters including the timestamp.
func (h *HMACAuth) SignQuery(params url.Values) string {
	return h.SignQueryAt(params, time.Now())
}

// SignQueryAt is like SignQuery but lets the caller supply the timestamp
// (useful for deterministic testing).
func (h *HMACAuth) SignQueryAt(params url.Values, at time.Time) string {
	params.Set("timestamp", strconv.FormatInt(at.UnixMilli(), 10))
	encoded := params.Encode()
	return encoded + "&signature=" + hmacSHA256Hex([]byte(h.Secret), encoded)
}

// String returns a redacted representation suitable for logging.
func (h *HMACAuth) String() string {
	redact := func(s string) string {
		if len(s) <= 4 {
			return "****"
		}
		return s[:4] + "****"
	}
	return fmt.Sprintf("HMACAuth{key=%s, secret=%s}", redact(h.Key), redact(h.Secret))
}

// hmacSHA256Hex computes HMAC-SHA256 of message using key and returns the
// result as a lowercase hex string.
func hmacSHA256Hex(key []byte, message string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
