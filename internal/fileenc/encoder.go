// Package fileenc turns file bytes into the textual form stored in the
// key-value store: base64url, optionally of a bounded prefix only.
package fileenc

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
)

var encoding = base64.URLEncoding

// EncodePrefix reads at most max bytes from r and returns their base64url
// encoding along with the number of source bytes consumed.
//
// The read runs until the prefix is complete, r is exhausted, or ctx is done.
// On cancellation or deadline the pending read's eventual result is
// discarded and ctx.Err() is returned; nothing is ever produced from an
// abandoned read.
func EncodePrefix(ctx context.Context, r io.Reader, max int64) (string, int64, error) {
	if max < 0 {
		return "", 0, fmt.Errorf("negative prefix limit %d", max)
	}

	type readResult struct {
		data []byte
		err  error
	}
	ch := make(chan readResult, 1)
	go func() {
		data, err := io.ReadAll(io.LimitReader(r, max))
		ch <- readResult{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", 0, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return "", 0, fmt.Errorf("read source: %w", res.err)
		}
		return encoding.EncodeToString(res.data), int64(len(res.data)), nil
	}
}

// EncodedLen reports the encoded length of n source bytes. Used to decide
// whether a stored prefix represents the whole file.
func EncodedLen(n int64) int64 {
	return (n + 2) / 3 * 4
}

// Decode reverses EncodePrefix for the download path.
func Decode(s string) ([]byte, error) {
	b, err := encoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return b, nil
}
