// Package kvstore defines the local key-value store every component writes
// through, plus its sqlite-backed and in-memory implementations.
//
// The store mimics a browser's localStorage: a flat string-keyed namespace
// with a finite capacity. Writes that would push total stored bytes past the
// configured capacity fail with common.ErrQuotaExceeded; callers decide how
// to degrade.
package kvstore

import "context"

// Store is the injected key-value capability shared by all services.
//
// Contract:
//   - Get returns (nil, nil) when the key is absent.
//   - Set upserts and fails with common.ErrQuotaExceeded when the write
//     would exceed capacity; the previous value (if any) stays intact.
//   - Delete is idempotent.
//   - Keys returns every stored key with the given prefix ("" for all).
//   - Clear wipes the namespace.
//
// All methods must honor context cancellation.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Clear(ctx context.Context) error
}

// entrySize is the number of capacity bytes one entry occupies.
func entrySize(key string, value []byte) int64 {
	return int64(len(key) + len(value))
}
