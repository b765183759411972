// Package models defines the records persisted in the local store:
// file records, users, checkout sessions and the coin package catalog.
package models

import "time"

// FileRecord describes one uploaded file. Records are created once at
// upload time and never mutated afterwards.
//
// Content always holds something: the base64url-encoded file bytes (possibly
// a prefix), or a synthetic placeholder when the bytes were not stored.
// IsTruncated is true iff Content represents fewer than ByteSize bytes of
// the original file.
type FileRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MIMEType     string    `json:"mimeType"`
	ByteSize     int64     `json:"byteSize"`
	CreatedAt    time.Time `json:"createdAt"`
	OwnerID      string    `json:"ownerId,omitempty"`
	Content      string    `json:"content"`
	IsTruncated  bool      `json:"isTruncated"`
	IsPremium    bool      `json:"isPremium"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}
