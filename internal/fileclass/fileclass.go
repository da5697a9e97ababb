package fileclass

// Package fileclass maps a file's MIME type or extension to a coarse
// category. Classification is pure and total: unknown inputs fall back to
// the generic "file" category, never an error.

import (
	"path/filepath"
	"strings"

	"materialapi/internal/model"
)

var extCategories = map[string]model.Category{
	"jpg": model.CategoryImage, "jpeg": model.CategoryImage, "png": model.CategoryImage,
	"gif": model.CategoryImage, "bmp": model.CategoryImage, "webp": model.CategoryImage,
	"svg": model.CategoryImage,

	"mp3": model.CategoryAudio, "wav": model.CategoryAudio, "ogg": model.CategoryAudio,
	"aac": model.CategoryAudio, "flac": model.CategoryAudio, "m4a": model.CategoryAudio,

	"mp4": model.CategoryVideo, "avi": model.CategoryVideo, "mov": model.CategoryVideo,
	"wmv": model.CategoryVideo, "flv": model.CategoryVideo, "webm": model.CategoryVideo,
	"mkv": model.CategoryVideo,
}

// Extensions that get a thumbnail URL. Deliberately narrower than the image
// category: svg is an image but the storage backend renders no thumbnail
// for it.
var thumbnailExts = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "bmp": true, "webp": true,
}

// Classify returns the category for a file given its MIME type and name.
// The MIME type wins when it carries an image/, audio/ or video/ prefix;
// otherwise the file extension decides.
func Classify(mimeType, name string) model.Category {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return model.CategoryImage
	case strings.HasPrefix(mimeType, "audio/"):
		return model.CategoryAudio
	case strings.HasPrefix(mimeType, "video/"):
		return model.CategoryVideo
	}
	if c, ok := extCategories[ext(name)]; ok {
		return c
	}
	return model.CategoryFile
}

// HasThumbnail reports whether a thumbnail URL should be derived for the
// given file name.
func HasThumbnail(name string) bool {
	return thumbnailExts[ext(name)]
}

func ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
