package model

import (
	"fmt"
	"strings"
	"time"
)

// EntityKind is the kind of domain entity a material is attached to.
type EntityKind string

const (
	EntityAssignment EntityKind = "assignment"
	EntityLecture    EntityKind = "lecture"
	EntitySubmission EntityKind = "submission"
)

// ParseEntityKind maps a URL path segment to an EntityKind. Both singular and
// plural segments are accepted ("assignments" routes to assignment).
func ParseEntityKind(s string) (EntityKind, error) {
	switch strings.ToLower(strings.TrimSuffix(s, "s")) {
	case "assignment":
		return EntityAssignment, nil
	case "lecture":
		return EntityLecture, nil
	case "submission":
		return EntitySubmission, nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// Material links a registered file to a domain entity. Rows are created once
// per successful upload chain and deleted independently; they are never
// mutated in place (a re-upload creates a new record).
type Material struct {
	ID           string     `json:"id"`
	EntityKind   EntityKind `json:"entityKind"`
	EntityID     string     `json:"entityId"`
	FileID       string     `json:"fileId"`
	FileKey      string     `json:"fileKey"`
	Title        string     `json:"title"`
	FileName     string     `json:"fileName"`
	FileSize     int64      `json:"fileSize"`
	FileType     Category   `json:"fileType"`
	ThumbnailURL string     `json:"thumbnailUrl"`
	OwnerID      string     `json:"ownerId"`
	OwnerType    OwnerType  `json:"ownerType"`
	CreatedAt    time.Time  `json:"createdAt"`
}
