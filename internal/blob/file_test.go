package blob

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskScope/internal/apperr"
)

func TestPutGet(t *testing.T) {
	s := NewFileStore(t.TempDir())

	url, err := s.Put("reports/cust-1_20260101_120000.txt", []byte("first"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"))
	assert.True(t, strings.HasSuffix(url, "reports/cust-1_20260101_120000.txt"))

	_, err = s.Put("reports/cust-1_20260101_120000.txt", []byte("second"))
	require.NoError(t, err)

	got, err := s.Get("reports/cust-1_20260101_120000.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestGetMissing(t *testing.T) {
	_, err := NewFileStore(t.TempDir()).Get("uploads/none.xml")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRejectsEscapingKeys(t *testing.T) {
	s := NewFileStore(t.TempDir())
	for _, key := range []string{"", "../etc/passwd", "/abs/path", "a/../../b"} {
		_, err := s.Put(key, []byte("x"))
		assert.ErrorIs(t, err, apperr.ErrValidation, key)
	}
}
