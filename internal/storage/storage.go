// Package storage abstracts the two places schema-inference input and
// output documents live: the local filesystem and an S3 bucket. It
// intentionally exposes only the operations a stateless reader/writer
// needs (Upload, Download, Exists) — it is not a general-purpose object
// store client.
package storage

import (
	"context"
	"errors"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrUploadFailed   = errors.New("upload failed")
	ErrDownloadFailed = errors.New("download failed")
)

// ObjectStorage abstracts fetching an input corpus or existing-schema
// document and writing a generated schema back out, over local disk or
// S3, so internal/source and the cmd/ binaries don't need to know which
// backend a given run is configured with.
type ObjectStorage interface {
	// Upload writes localPath's contents to objectPath, e.g. a freshly
	// generated schema document.
	Upload(ctx context.Context, localPath, objectPath string) error

	// Download fetches objectPath into localPath, e.g. an input corpus
	// file or a previously generated existing_schema document.
	Download(ctx context.Context, objectPath, localPath string) error

	// Exists reports whether objectPath is present, used to check that an
	// existing_schema document is there before downloading it.
	Exists(ctx context.Context, objectPath string) (bool, error)
}
