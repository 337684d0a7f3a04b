package ingest

import (
	"context"
	"encoding/base64"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"riskScope/internal/apperr"
)

// BlobStore keeps the raw uploaded documents.
type BlobStore interface {
	Put(key string, data []byte) (string, error)
}

type UploadResult struct {
	Filename string    `json:"filename"`
	Location string    `json:"location"`
	Summary  Summary   `json:"ingest"`
	At       time.Time `json:"timestamp"`
}

type Uploader struct {
	blobs  BlobStore
	loader *Loader
	now    func() time.Time
}

func NewUploader(blobs BlobStore, loader *Loader) *Uploader {
	return &Uploader{blobs: blobs, loader: loader, now: time.Now}
}

// Upload decodes a base64 XML document, stores it under
// uploads/<timestamp>_<name>.xml and loads it. Documents that are not valid XML
// are rejected before anything is stored.
func (u *Uploader) Upload(ctx context.Context, fileB64, filename string) (UploadResult, error) {
	fileB64 = strings.TrimSpace(fileB64)
	if fileB64 == "" {
		return UploadResult{}, apperr.Validation("no file content provided")
	}
	doc, err := decodeBase64(fileB64)
	if err != nil {
		return UploadResult{}, apperr.Validation("invalid base64 encoding: " + err.Error())
	}

	now := u.now()
	rep, err := ParseBytes(doc, now.UTC())
	if err != nil {
		return UploadResult{}, err
	}

	name := UploadName(filename)
	loc, err := u.blobs.Put("uploads/"+now.Format("20060102_150405")+"_"+name, doc)
	if err != nil {
		return UploadResult{}, err
	}

	sum, err := u.loader.Load(ctx, rep)
	if err != nil {
		return UploadResult{}, err
	}
	return UploadResult{Filename: name, Location: loc, Summary: sum, At: now.UTC()}, nil
}

// UploadName strips directories from name and forces an .xml suffix.
func UploadName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload_" + uuid.NewString()[:8] + ".xml"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".xml") {
		name += ".xml"
	}
	return name
}

func decodeBase64(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
