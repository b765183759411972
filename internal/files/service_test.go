package files

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmelnikov/filedrop/internal/common"
	"github.com/vmelnikov/filedrop/internal/fileenc"
	"github.com/vmelnikov/filedrop/internal/kvstore"
	"github.com/vmelnikov/filedrop/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func bytesSource(name, mime string, data []byte) Source {
	return Source{
		Name:     name,
		MIMEType: mime,
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func TestUpload_SmallFile_FullContent(t *testing.T) {
	store := kvstore.NewMemoryStore(0)
	svc := NewService(store, testLogger())
	ctx := context.Background()

	data := bytes.Repeat([]byte("abc"), 1000) // 3000 bytes, under the prefix limit
	rec, err := svc.Upload(ctx, bytesSource("notes.txt", "text/plain", data), UploadOptions{})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.IsTruncated)
	assert.False(t, rec.IsPremium)
	assert.Equal(t, fileenc.EncodedLen(int64(len(data))), int64(len(rec.Content)))

	back, err := fileenc.Decode(rec.Content)
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestUpload_OverPrefixLimit_StoresTruncatedPrefix(t *testing.T) {
	store := kvstore.NewMemoryStore(0)
	svc := NewService(store, testLogger())
	ctx := context.Background()

	data := bytes.Repeat([]byte{0x5A}, ContentPrefixLimit+1)
	rec, err := svc.Upload(ctx, bytesSource("big.bin", "application/octet-stream", data), UploadOptions{})
	require.NoError(t, err)

	assert.True(t, rec.IsTruncated)
	assert.False(t, rec.IsPremium)

	back, err := fileenc.Decode(rec.Content)
	require.NoError(t, err)
	assert.Equal(t, data[:ContentPrefixLimit], back)
}

func TestUpload_Premium_StoresPlaceholderNeverBytes(t *testing.T) {
	store := kvstore.NewMemoryStore(0)
	svc := NewService(store, testLogger())
	ctx := context.Background()

	opened := false
	src := Source{
		Name:     "video.mkv",
		MIMEType: "video/x-matroska",
		Size:     150 << 20, // 150 MiB
		Open: func() (io.ReadCloser, error) {
			opened = true
			return io.NopCloser(bytes.NewReader(nil)), nil
		},
	}

	rec, err := svc.Upload(ctx, src, UploadOptions{OwnerID: "u1"})
	require.NoError(t, err)

	assert.True(t, rec.IsPremium)
	assert.True(t, rec.IsTruncated)
	assert.True(t, IsPlaceholder(rec.Content))
	assert.False(t, opened, "premium uploads must not read the file")
	assert.Equal(t, int64(150<<20), rec.ByteSize)
}

func TestUpload_Premium_ForceFree_StoresPrefix(t *testing.T) {
	store := kvstore.NewMemoryStore(0)
	svc := NewService(store, testLogger())
	ctx := context.Background()

	data := bytes.Repeat([]byte{1}, 4096)
	src := Source{
		Name:     "huge.iso",
		MIMEType: "application/octet-stream",
		Size:     FreeLimit + 1,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}

	rec, err := svc.Upload(ctx, src, UploadOptions{ForceFree: true})
	require.NoError(t, err)

	assert.True(t, rec.IsPremium, "premium flag reflects size even when forced free")
	assert.True(t, rec.IsTruncated)
	assert.False(t, IsPlaceholder(rec.Content))
}

func TestUpload_TooLarge_RejectedBeforeRead(t *testing.T) {
	store := kvstore.NewMemoryStore(0)
	svc := NewService(store, testLogger())

	src := Source{Name: "x", Size: MaxUploadSize + 1}
	_, err := svc.Upload(context.Background(), src, UploadOptions{})
	require.ErrorIs(t, err, common.ErrFileTooLarge)
}

func TestUpload_QuotaHit_DegradesToMetadataOnlyRecord(t *testing.T) {
	// Room for a minimal record but not for 1 KiB of encoded content.
	store := kvstore.NewMemoryStore(600)
	svc := NewService(store, testLogger())
	ctx := context.Background()

	data := bytes.Repeat([]byte{7}, 1024)
	rec, err := svc.Upload(ctx, bytesSource("a.bin", "application/octet-stream", data), UploadOptions{})
	require.NoError(t, err, "quota pressure must not fail the upload")

	assert.True(t, IsPlaceholder(rec.Content))
	assert.True(t, rec.IsTruncated)
	assert.NotEmpty(t, rec.ErrorMessage)

	got, err := svc.Lookup(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got, "degraded record must be retrievable")
	assert.Equal(t, rec.ID, got.ID)
}

func TestUpload_QuotaHit_EvenMinimalWriteFails(t *testing.T) {
	store := kvstore.NewMemoryStore(40)
	svc := NewService(store, testLogger())

	data := []byte("content")
	_, err := svc.Upload(context.Background(), bytesSource("a", "t", data), UploadOptions{})
	require.ErrorIs(t, err, common.ErrStoreWrite)
}

func TestUpload_ReadError_NoPartialRecord(t *testing.T) {
	store := kvstore.NewMemoryStore(0)
	svc := NewService(store, testLogger())
	ctx := context.Background()

	src := Source{
		Name: "gone.txt",
		Size: 10,
		Open: func() (io.ReadCloser, error) {
			return nil, errors.New("no such file")
		},
	}
	_, err := svc.Upload(ctx, src, UploadOptions{})
	require.ErrorIs(t, err, common.ErrReadFailure)

	keys, err := store.Keys(ctx, recordKeyPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys, "a failed read must leave no record behind")
}

func TestUpload_StalledRead_TimesOut(t *testing.T) {
	store := kvstore.NewMemoryStore(0)
	svc := NewService(store, testLogger())
	svc.ReadTimeout = 20 * time.Millisecond

	release := make(chan struct{})
	defer close(release)
	src := Source{
		Name: "slow.bin",
		Size: 10,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(stalledReader{release: release}), nil
		},
	}

	_, err := svc.Upload(context.Background(), src, UploadOptions{})
	require.ErrorIs(t, err, common.ErrReadFailure)
}

func TestLookup_RoundTrip(t *testing.T) {
	store := kvstore.NewMemoryStore(0)
	svc := NewService(store, testLogger())
	ctx := context.Background()

	data := []byte("round trip me")
	rec, err := svc.Upload(ctx, bytesSource("rt.txt", "text/plain", data), UploadOptions{OwnerID: "u9"})
	require.NoError(t, err)

	got, err := svc.Lookup(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "rt.txt", got.Name)
	assert.Equal(t, "text/plain", got.MIMEType)
	assert.Equal(t, int64(len(data)), got.ByteSize)
	assert.Equal(t, "u9", got.OwnerID)
}

func TestLookup_AbsentAndCorrupted_ReturnNilNil(t *testing.T) {
	store := kvstore.NewMemoryStore(0)
	svc := NewService(store, testLogger())
	ctx := context.Background()

	got, err := svc.Lookup(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Set(ctx, recordKeyPrefix+"bad", []byte("{not json")))
	got, err = svc.Lookup(ctx, "bad")
	require.NoError(t, err)
	assert.Nil(t, got, "corrupted records are treated as absent")
}

func TestListByOwner_FiltersAndSkipsCorrupted(t *testing.T) {
	store := kvstore.NewMemoryStore(0)
	svc := NewService(store, testLogger())
	ctx := context.Background()

	_, err := svc.Upload(ctx, bytesSource("mine1.txt", "text/plain", []byte("a")), UploadOptions{OwnerID: "me"})
	require.NoError(t, err)
	_, err = svc.Upload(ctx, bytesSource("mine2.txt", "text/plain", []byte("b")), UploadOptions{OwnerID: "me"})
	require.NoError(t, err)
	_, err = svc.Upload(ctx, bytesSource("theirs.txt", "text/plain", []byte("c")), UploadOptions{OwnerID: "them"})
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, recordKeyPrefix+"junk", []byte("???")))

	recs, err := svc.ListByOwner(ctx, "me")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Equal(t, "me", rec.OwnerID)
	}
}

func TestDownloadURL_Shape(t *testing.T) {
	assert.Equal(t, "https://drop.example/download/abc123",
		DownloadURL("https://drop.example", "abc123"))
	assert.Equal(t, "https://drop.example/download/abc123",
		DownloadURL("https://drop.example/", "abc123"))
}

type stalledReader struct{ release chan struct{} }

func (r stalledReader) Read([]byte) (int, error) {
	<-r.release
	return 0, io.EOF
}
