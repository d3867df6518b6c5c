package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snag/internal/failure"
	"snag/internal/media"
)

func TestNormalizeKind(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		ext      string
		url      string
		want     media.Kind
	}{
		{"zero duration jpg", 0, "jpg", "https://example.com/p/1", media.Photo},
		{"zero duration mp4", 0, "mp4", "https://example.com/p/1", media.Video},
		{"duration wins over image ext", 12.5, "jpg", "https://example.com/p/1", media.Video},
		{"canonical url ext", 0, "", "https://cdn.example.com/img/cat.PNG", media.Photo},
		{"no evidence", 0, "", "https://example.com/watch", media.Video},
		{"dotted upper ext", 0, ".JPEG", "https://example.com/x", media.Photo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Normalize(Raw{
				URL:      tt.url,
				Duration: tt.duration,
				Formats:  []media.Format{{FormatID: "0", Extension: tt.ext}},
			}, media.Other)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Kind)
		})
	}
}

func TestNormalizeDefaults(t *testing.T) {
	d, err := Normalize(Raw{
		URL:     "https://example.com/v/42",
		Formats: []media.Format{{DirectURL: "https://cdn.example.com/v/42.MP4?sig=x"}},
	}, media.Other)
	require.NoError(t, err)

	assert.Equal(t, "Unknown Title", d.Title)
	assert.Equal(t, "Unknown", d.Uploader)
	assert.Equal(t, "Unknown", d.UploaderID)
	assert.Equal(t, "", d.ThumbnailURL)
	assert.Len(t, d.ID, 11)
	assert.Equal(t, FallbackID("https://example.com/v/42"), d.ID)
	assert.Equal(t, "mp4", d.Formats[0].Extension)
	assert.Equal(t, media.Other, d.Platform)
}

func TestNormalizeThumbnail(t *testing.T) {
	formats := []media.Format{{FormatID: "a"}}

	d, err := Normalize(Raw{Thumbnail: "explicit.jpg", Thumbnails: []string{"a.jpg", "b.jpg"}, Formats: formats}, media.YouTube)
	require.NoError(t, err)
	assert.Equal(t, "explicit.jpg", d.ThumbnailURL)

	d, err = Normalize(Raw{Thumbnails: []string{"small.jpg", "large.jpg"}, Formats: formats}, media.YouTube)
	require.NoError(t, err)
	assert.Equal(t, "large.jpg", d.ThumbnailURL)
}

func TestNormalizeDropsUnusableFormats(t *testing.T) {
	_, err := Normalize(Raw{Formats: []media.Format{{Extension: "mp4", Height: 720}}}, media.Other)
	assert.Equal(t, failure.NotFound, failure.KindOf(err))

	_, err = Normalize(Raw{}, media.Other)
	assert.Equal(t, failure.NotFound, failure.KindOf(err))
}

func TestFallbackIDStable(t *testing.T) {
	a := FallbackID("https://example.com/a")
	assert.Equal(t, a, FallbackID("https://example.com/a"))
	assert.NotEqual(t, a, FallbackID("https://example.com/b"))
}
