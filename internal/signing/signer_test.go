package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSigner(alg Algorithm, at time.Time) *Signer {
	s := NewSigner("key-1", "s3cret", alg, HeaderNames{})
	s.now = func() time.Time { return at }
	return s
}

func TestMessageLayout(t *testing.T) {
	got := Message("1700000000000", "get", "/v1/account/balances?limit=5", []byte(`{"a":1}`))
	assert.Equal(t, `1700000000000GET/v1/account/balances?limit=5{"a":1}`, got)
}

func TestSignSHA512WithoutBody(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	h := fixedSigner(SHA512, at).Sign("GET", "/v1/account/balances", nil)

	mac := hmac.New(sha512.New, []byte("s3cret"))
	mac.Write([]byte("1700000000123GET/v1/account/balances"))
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, h.Get("X-API-SIGNATURE"))
	assert.Len(t, h.Get("X-API-SIGNATURE"), 128)
	assert.Equal(t, "key-1", h.Get("X-API-KEY"))
	assert.Equal(t, "1700000000123", h.Get("X-API-TIMESTAMP"))
	assert.Empty(t, h.Get("Content-Type"))
}

func TestSignSHA256CompactsBody(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	h := fixedSigner(SHA256, at).Sign("post", "/orders", []byte("{ \"pair\": \"XBTZAR\",\n \"qty\": 1 }"))

	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write([]byte(`1700000000000POST/orders{"pair":"XBTZAR","qty":1}`))
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, h.Get("X-API-SIGNATURE"))
	assert.Len(t, h.Get("X-API-SIGNATURE"), 64)
	assert.Equal(t, "application/json", h.Get("Content-Type"))
}

func TestSignDistinctPerCall(t *testing.T) {
	s := NewSigner("key-1", "s3cret", SHA512, HeaderNames{})
	ms := int64(1700000000000)
	s.now = func() time.Time {
		ms++
		return time.UnixMilli(ms)
	}

	a := s.Sign("GET", "/accounts", nil)
	b := s.Sign("GET", "/accounts", nil)
	assert.NotEqual(t, a.Get("X-API-SIGNATURE"), b.Get("X-API-SIGNATURE"))
}

func TestSignWithoutCredentialsDoesNotFail(t *testing.T) {
	s := NewSigner("", "", "", HeaderNames{Key: "X-VALR-API-KEY"})
	require.False(t, s.HasCredentials())

	h := s.Sign("GET", "/accounts", []byte("not json"))
	assert.NotEmpty(t, h.Get("X-API-SIGNATURE"))
	assert.Equal(t, "", h.Get("X-VALR-API-KEY"))
	assert.Equal(t, "application/json", h.Get("Content-Type"))
}

func TestParseAlgorithm(t *testing.T) {
	assert.Equal(t, SHA256, ParseAlgorithm("SHA256"))
	assert.Equal(t, SHA512, ParseAlgorithm("sha512"))
	assert.Equal(t, SHA512, ParseAlgorithm(""))
}
