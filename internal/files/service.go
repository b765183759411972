// Package files implements the upload orchestrator and the file record
// store. It decides how much of a file's content is persisted based on the
// size policy and the store's remaining capacity, and always degrades to a
// metadata-only record rather than fail a caller on quota pressure.
package files

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/vmelnikov/filedrop/internal/common"
	"github.com/vmelnikov/filedrop/internal/fileenc"
	"github.com/vmelnikov/filedrop/internal/kvstore"
	"github.com/vmelnikov/filedrop/internal/logging"
	"github.com/vmelnikov/filedrop/internal/models"
)

// Size policy. Files above FreeLimit are premium and cost a coin unless the
// caller explicitly continues without one; at most ContentPrefixLimit source
// bytes are ever persisted for non-premium uploads.
const (
	FreeLimit          = 100 << 20 // 100 MiB
	MaxUploadSize      = 2 << 30   // 2 GiB
	ContentPrefixLimit = 100 << 10 // 100 KiB
)

// DefaultReadTimeout bounds a single source read. A stalled read surfaces
// as common.ErrReadFailure.
const DefaultReadTimeout = 30 * time.Second

const recordKeyPrefix = "file_"

// timeNow is a test seam.
var timeNow = time.Now

// Source describes one uploadable file. Open is called at most once, only
// when the policy requires actual content.
type Source struct {
	Name     string
	MIMEType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// UploadOptions carry the per-upload decisions made by the caller.
// ForceFree bypasses the premium coin requirement but not the truncation
// policy.
type UploadOptions struct {
	OwnerID   string
	ForceFree bool
}

// Service is the upload orchestrator bound to an injected store.
type Service struct {
	store kvstore.Store
	log   logging.Logger

	// ReadTimeout bounds source reads; tests shrink it.
	ReadTimeout time.Duration
}

// NewService constructs the orchestrator.
func NewService(store kvstore.Store, log logging.Logger) *Service {
	return &Service{store: store, log: log, ReadTimeout: DefaultReadTimeout}
}

// Premium reports whether a file of the given size requires a coin.
func Premium(size int64) bool {
	return size > FreeLimit
}

// Upload produces and persists a FileRecord for src.
//
// Files above MaxUploadSize are rejected before any read. Premium files
// (unless forced free) store a synthetic placeholder and never the bytes.
// Everything else stores a base64url prefix of at most ContentPrefixLimit
// source bytes. If the store rejects the write for quota reasons the upload
// degrades to a metadata-only placeholder record and still succeeds; only a
// failure to write even that returns common.ErrStoreWrite. A source read
// error returns common.ErrReadFailure and leaves no partial record.
func (s *Service) Upload(ctx context.Context, src Source, opts UploadOptions) (*models.FileRecord, error) {
	if src.Size > MaxUploadSize {
		return nil, fmt.Errorf("%w: %d bytes", common.ErrFileTooLarge, src.Size)
	}
	if src.Size < 0 {
		return nil, fmt.Errorf("negative file size %d", src.Size)
	}

	id, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("generate file id: %w", err)
	}

	rec := &models.FileRecord{
		ID:        id,
		Name:      src.Name,
		MIMEType:  src.MIMEType,
		ByteSize:  src.Size,
		CreatedAt: timeNow().UTC(),
		OwnerID:   opts.OwnerID,
		IsPremium: Premium(src.Size),
	}

	if rec.IsPremium && !opts.ForceFree {
		rec.Content = placeholderContent(src.Name, src.MIMEType, src.Size)
		rec.IsTruncated = src.Size > 0
	} else {
		encoded, n, err := s.encodePrefix(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrReadFailure, err)
		}
		rec.Content = encoded
		rec.IsTruncated = n < src.Size
	}

	if err := s.writeRecord(ctx, rec); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "file record stored",
		"id", rec.ID, "size", rec.ByteSize,
		"premium", rec.IsPremium, "truncated", rec.IsTruncated)
	return rec, nil
}

func (s *Service) encodePrefix(ctx context.Context, src Source) (string, int64, error) {
	if src.Open == nil {
		return "", 0, errors.New("source is not readable")
	}
	r, err := src.Open()
	if err != nil {
		return "", 0, err
	}
	defer r.Close()

	readCtx, cancel := context.WithTimeout(ctx, s.ReadTimeout)
	defer cancel()

	return fileenc.EncodePrefix(readCtx, r, ContentPrefixLimit)
}

// writeRecord persists rec, degrading to a minimal placeholder record when
// the store is out of quota.
func (s *Service) writeRecord(ctx context.Context, rec *models.FileRecord) error {
	err := s.setRecord(ctx, rec)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrQuotaExceeded) {
		return fmt.Errorf("%w: %v", common.ErrStoreWrite, err)
	}

	s.log.Warn(ctx, "store quota hit, retrying with metadata-only record", "id", rec.ID)
	rec.Content = placeholderContent(rec.Name, rec.MIMEType, rec.ByteSize)
	rec.IsTruncated = rec.ByteSize > 0
	rec.ErrorMessage = "file content dropped: local storage capacity exceeded"

	if err := s.setRecord(ctx, rec); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreWrite, err)
	}
	return nil
}

func (s *Service) setRecord(ctx context.Context, rec *models.FileRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, recordKeyPrefix+rec.ID, data)
}

// Lookup retrieves a record by id. Absent and unparseable stored values
// both yield (nil, nil); a corrupted record never fails the caller.
func (s *Service) Lookup(ctx context.Context, id string) (*models.FileRecord, error) {
	data, err := s.store.Get(ctx, recordKeyPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("get file record: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var rec models.FileRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.ID == "" {
		s.log.Warn(ctx, "discarding corrupted file record", "id", id)
		return nil, nil
	}
	return &rec, nil
}

// ListByOwner returns every readable record owned by ownerID, newest first.
// Corrupted entries are skipped.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*models.FileRecord, error) {
	keys, err := s.store.Keys(ctx, recordKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list file keys: %w", err)
	}

	var out []*models.FileRecord
	for _, key := range keys {
		rec, err := s.Lookup(ctx, strings.TrimPrefix(key, recordKeyPrefix))
		if err != nil {
			return nil, err
		}
		if rec == nil || rec.OwnerID != ownerID {
			continue
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// DownloadURL builds the shareable link for a record id.
func DownloadURL(origin, id string) string {
	return strings.TrimRight(origin, "/") + "/download/" + id
}
