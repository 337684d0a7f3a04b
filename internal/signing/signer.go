// Package signing builds HMAC authentication headers for private exchange endpoints.
//
// The signed message is the decimal millisecond timestamp, the upper-cased method,
// the request path including its query string, and the compact JSON body when one
// is present, concatenated without separators.
package signing

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"hash"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Algorithm selects the HMAC digest width the provider expects.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
)

// ParseAlgorithm maps a config value onto an Algorithm, defaulting to SHA512.
func ParseAlgorithm(s string) Algorithm {
	if strings.EqualFold(strings.TrimSpace(s), string(SHA256)) {
		return SHA256
	}
	return SHA512
}

func (a Algorithm) newHash() func() hash.Hash {
	if a == SHA256 {
		return sha256.New
	}
	return sha512.New
}

// HeaderNames are the provider-specific header keys.
type HeaderNames struct {
	Key       string
	Signature string
	Timestamp string
}

// DefaultHeaderNames returns generic header keys.
func DefaultHeaderNames() HeaderNames {
	return HeaderNames{
		Key:       "X-API-KEY",
		Signature: "X-API-SIGNATURE",
		Timestamp: "X-API-TIMESTAMP",
	}
}

// Signer produces per-request authentication headers.
type Signer struct {
	keyID     string
	secret    []byte
	algorithm Algorithm
	headers   HeaderNames
	now       func() time.Time
}

func NewSigner(keyID, secret string, algorithm Algorithm, headers HeaderNames) *Signer {
	def := DefaultHeaderNames()
	if headers.Key == "" {
		headers.Key = def.Key
	}
	if headers.Signature == "" {
		headers.Signature = def.Signature
	}
	if headers.Timestamp == "" {
		headers.Timestamp = def.Timestamp
	}
	if algorithm == "" {
		algorithm = SHA512
	}
	return &Signer{
		keyID:     keyID,
		secret:    []byte(secret),
		algorithm: algorithm,
		headers:   headers,
		now:       time.Now,
	}
}

// HasCredentials reports whether both key and secret are configured.
func (s *Signer) HasCredentials() bool {
	return s != nil && s.keyID != "" && len(s.secret) > 0
}

// Sign returns the authentication headers for one request. body is the JSON payload,
// or nil for bodiless requests; Content-Type is only set when a body is present.
// An empty key or secret still yields headers, which the provider will reject.
func (s *Signer) Sign(method, path string, body []byte) http.Header {
	ts := strconv.FormatInt(s.now().UnixMilli(), 10)
	payload := compactJSON(body)

	mac := hmac.New(s.algorithm.newHash(), s.secret)
	mac.Write([]byte(Message(ts, method, path, payload)))
	signature := hex.EncodeToString(mac.Sum(nil))

	h := make(http.Header)
	h.Set(s.headers.Key, s.keyID)
	h.Set(s.headers.Signature, signature)
	h.Set(s.headers.Timestamp, ts)
	if len(payload) > 0 {
		h.Set("Content-Type", "application/json")
	}
	return h
}

// Message builds the canonical string that is signed.
func Message(timestamp, method, path string, body []byte) string {
	var b strings.Builder
	b.Grow(len(timestamp) + len(method) + len(path) + len(body))
	b.WriteString(timestamp)
	b.WriteString(strings.ToUpper(method))
	b.WriteString(path)
	b.Write(body)
	return b.String()
}

func compactJSON(body []byte) []byte {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return body
	}
	return buf.Bytes()
}
