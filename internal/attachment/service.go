package attachment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sitrep-gov/platform/internal/shared/config"
	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/metrics"
	"github.com/sitrep-gov/platform/internal/shared/types"
)

// MIME types accepted in production. Outside production any type is
// allowed to ease testing.
var allowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"application/pdf": true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/plain": true,
}

// Service stores uploads on disk and tracks them in the database.
type Service struct {
	repo       *Repository
	dir        string
	maxSize    int64
	production bool
}

// NewService creates an attachment service and ensures the upload
// directory exists.
func NewService(repo *Repository, cfg config.UploadConfig, production bool) (*Service, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Service{
		repo:       repo,
		dir:        cfg.Dir,
		maxSize:    cfg.MaxSize,
		production: production,
	}, nil
}

// Upload reads the "file" part of a multipart request, stores it on disk
// and records it against the owning record.
func (s *Service) Upload(r *http.Request, ownerType string, ownerID types.ID) (*Attachment, error) {
	if err := r.ParseMultipartForm(s.maxSize); err != nil {
		return nil, errors.Upload("file exceeds the size limit or the form is malformed", "UPLOAD_TOO_LARGE")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errors.Upload("missing file field", "UPLOAD_MISSING_FILE")
	}
	defer file.Close()

	if header.Size > s.maxSize {
		return nil, errors.Upload(
			fmt.Sprintf("file exceeds the %d MB limit", s.maxSize/(1024*1024)),
			"UPLOAD_TOO_LARGE",
		)
	}

	mimeType := header.Header.Get("Content-Type")
	if s.production && !allowedMimeTypes[mimeType] {
		return nil, errors.Upload("file type is not allowed", "UPLOAD_BAD_TYPE")
	}

	storedName := storedFilename(ownerType, header.Filename)
	path := filepath.Join(s.dir, storedName)

	if err := writeFile(path, file); err != nil {
		return nil, errors.Wrap(err, "failed to store upload")
	}

	a := &Attachment{
		ID:         types.NewID(),
		OwnerType:  ownerType,
		OwnerID:    ownerID,
		Filename:   header.Filename,
		Path:       path,
		MimeType:   mimeType,
		Size:       header.Size,
		UploadedAt: time.Now().UTC(),
	}

	if err := s.repo.Insert(r.Context(), a); err != nil {
		os.Remove(path)
		return nil, err
	}

	metrics.RecordAttachmentStored(ownerType)
	return a, nil
}

// List returns the attachments of one owning record.
func (s *Service) List(ctx context.Context, ownerType string, ownerID types.ID) ([]Attachment, error) {
	return s.repo.ListByOwner(ctx, ownerType, ownerID)
}

// Remove deletes an attachment record and its file. A missing file is
// logged, not treated as an error; the record is authoritative.
func (s *Service) Remove(ctx context.Context, ownerType string, ownerID, id types.ID) error {
	a, err := s.repo.FindOwned(ctx, ownerType, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, a.ID); err != nil {
		return err
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		log.Printf("attachment: failed to remove file %s: %v", a.Path, err)
	}
	return nil
}

func writeFile(path string, src multipart.File) error {
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// storedFilename builds a collision-free name:
// <owner>-<sanitized base>-<unix millis>-<random>.<ext>
func storedFilename(ownerType, original string) string {
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(filepath.Base(original), ext)
	base = unsafeChars.ReplaceAllString(base, "_")
	if base == "" {
		base = "file"
	}

	suffix := make([]byte, 4)
	rand.Read(suffix)

	return fmt.Sprintf("%s-%s-%d-%s%s",
		ownerType, base, time.Now().UnixMilli(), hex.EncodeToString(suffix), ext)
}
