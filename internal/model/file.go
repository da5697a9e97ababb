package model

import "time"

// Category is the coarse classification of an uploaded file.
type Category string

const (
	CategoryImage Category = "image"
	CategoryAudio Category = "audio"
	CategoryVideo Category = "video"
	CategoryFile  Category = "file"
)

// OwnerType identifies the role a file is scoped to.
type OwnerType string

const (
	OwnerInstructor OwnerType = "INSTRUCTOR"
	OwnerStudent    OwnerType = "STUDENT"
	OwnerUser       OwnerType = "USER"
)

// UploadGrant is a short-lived, single-use permission to PUT a binary
// directly to object storage. It is never persisted; the key becomes the
// file's storage key once the upload completes.
type UploadGrant struct {
	UploadURL  string `json:"url"`
	StorageKey string `json:"key"`
}

// StoredFile is the metadata row registered after a binary has landed in
// object storage. Width/Height are populated only for images; Duration is
// carried for audio/video but not probed by the current clients.
type StoredFile struct {
	ID           string    `json:"id"`
	StorageKey   string    `json:"key"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	Category     Category  `json:"type"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Duration     float64   `json:"duration"`
	Position     int       `json:"index"`
	Active       bool      `json:"active"`
	ThumbnailKey string    `json:"thumbnailKey"`
	OwnerID      string    `json:"ownerId"`
	OwnerType    OwnerType `json:"ownerType"`
	CreatedAt    time.Time `json:"createdAt"`
}
