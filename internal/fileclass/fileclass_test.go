package fileclass

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"materialapi/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		fileName string
		want     model.Category
	}{
		{"mime image wins", "image/png", "photo.png", model.CategoryImage},
		{"mime audio wins", "audio/mpeg", "song.mp3", model.CategoryAudio},
		{"mime video wins", "video/mp4", "clip.mp4", model.CategoryVideo},
		{"mime beats extension", "image/png", "misnamed.mp3", model.CategoryImage},
		{"extension image", "", "scan.JPEG", model.CategoryImage},
		{"extension svg is image", "", "diagram.svg", model.CategoryImage},
		{"extension audio", "application/octet-stream", "voice.m4a", model.CategoryAudio},
		{"extension video", "", "lecture.mkv", model.CategoryVideo},
		{"unknown extension", "", "report.pdf", model.CategoryFile},
		{"no extension", "", "README", model.CategoryFile},
		{"empty name", "", "", model.CategoryFile},
		{"generic mime falls back to extension", "application/octet-stream", "pic.webp", model.CategoryImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.mimeType, tt.fileName))
		})
	}
}

func TestClassifyKnownExtensions(t *testing.T) {
	byCategory := map[model.Category][]string{
		model.CategoryImage: {"jpg", "jpeg", "png", "gif", "bmp", "webp", "svg"},
		model.CategoryAudio: {"mp3", "wav", "ogg", "aac", "flac", "m4a"},
		model.CategoryVideo: {"mp4", "avi", "mov", "wmv", "flv", "webm", "mkv"},
	}
	for cat, exts := range byCategory {
		for _, e := range exts {
			assert.Equal(t, cat, Classify("", "f."+e), "extension %q", e)
		}
	}
}

func TestHasThumbnail(t *testing.T) {
	for _, name := range []string{"a.jpg", "a.JPEG", "a.png", "a.gif", "a.bmp", "a.webp"} {
		assert.True(t, HasThumbnail(name), name)
	}
	// svg classifies as image but never gets a thumbnail
	for _, name := range []string{"a.svg", "a.mp4", "a.pdf", "a", ""} {
		assert.False(t, HasThumbnail(name), name)
	}
}
