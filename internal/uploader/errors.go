package uploader

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the downloader. Callers render these as
// distinct user-facing messages.
var (
	ErrEmptyFile          = errors.New("downloaded file is empty")
	ErrNotFound           = errors.New("file not found")
	ErrForbidden          = errors.New("access to file denied")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrNetworkUnreachable = errors.New("network unreachable")
)

// UploadGrantError reports a failure to obtain a presigned upload grant,
// including the contract violation of a grant with an empty URL or key.
type UploadGrantError struct {
	Status int
	Body   string
	Err    error
}

func (e *UploadGrantError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload grant: %v", e.Err)
	}
	return fmt.Sprintf("upload grant: backend returned %d: %s", e.Status, e.Body)
}

func (e *UploadGrantError) Unwrap() error { return e.Err }

// StorageUploadError reports a failed direct PUT to the presigned URL.
// Success of that stage is determined solely by the HTTP status.
type StorageUploadError struct {
	Status int
	Err    error
}

func (e *StorageUploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage upload: %v", e.Err)
	}
	return fmt.Sprintf("storage upload: storage returned %d", e.Status)
}

func (e *StorageUploadError) Unwrap() error { return e.Err }

// UploadCompletionError reports a backend rejection of the completion
// metadata (e.g. a missing required field).
type UploadCompletionError struct {
	Status int
	Body   string
	Err    error
}

func (e *UploadCompletionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload completion: %v", e.Err)
	}
	return fmt.Sprintf("upload completion: backend returned %d: %s", e.Status, e.Body)
}

func (e *UploadCompletionError) Unwrap() error { return e.Err }

// MaterialLinkError reports a failure to attach the registered file to its
// entity. Status and body are kept verbatim: this stage is the one most
// prone to backend schema drift, and the raw response is the diagnosis.
type MaterialLinkError struct {
	Status int
	Body   string
	Err    error
}

func (e *MaterialLinkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("material link: %v", e.Err)
	}
	return fmt.Sprintf("material link: backend returned %d: %s", e.Status, e.Body)
}

func (e *MaterialLinkError) Unwrap() error { return e.Err }
