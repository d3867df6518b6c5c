package extract

import (
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"path"
	"strings"

	"snag/internal/failure"
	"snag/internal/media"
	"snag/internal/platform"
)

const (
	placeholderTitle    = "Unknown Title"
	placeholderUploader = "Unknown"
	fallbackIDLength    = 11
)

// Raw is the loosely-typed upstream shape every extractor parses into
// before normalization. Zero values mean "not provided".
type Raw struct {
	ID          string
	Title       string
	Description string
	Thumbnail   string
	Thumbnails  []string
	Duration    float64
	Uploader    string
	UploaderID  string
	URL         string
	Formats     []media.Format
}

// Normalize maps raw upstream metadata onto a Descriptor. It fails with
// NotFound when no usable format survives, since an empty descriptor is
// never a valid result.
func Normalize(raw Raw, source media.Platform) (*media.Descriptor, error) {
	formats := make([]media.Format, 0, len(raw.Formats))
	for _, f := range raw.Formats {
		if f.DirectURL == "" && f.FormatID == "" {
			continue
		}
		f.Extension = normalizeExt(f.Extension)
		if f.Extension == "" && f.DirectURL != "" {
			f.Extension = extOf(f.DirectURL)
		}
		if f.Width < 0 {
			f.Width = 0
		}
		if f.Height < 0 {
			f.Height = 0
		}
		formats = append(formats, f)
	}
	if len(formats) == 0 {
		return nil, fail(failure.NotFound, "upstream listed no usable formats")
	}

	canonical := strings.TrimSpace(raw.URL)
	duration := raw.Duration
	if duration < 0 {
		duration = 0
	}

	d := &media.Descriptor{
		ID:            raw.ID,
		Title:         orDefault(raw.Title, placeholderTitle),
		Description:   strings.TrimSpace(raw.Description),
		ThumbnailURL:  pickThumbnail(raw.Thumbnail, raw.Thumbnails),
		Duration:      duration,
		Uploader:      orDefault(raw.Uploader, placeholderUploader),
		UploaderID:    orDefault(raw.UploaderID, placeholderUploader),
		Platform:      source,
		PlatformLabel: platform.Label(canonical),
		Kind:          deriveKind(duration, formats, canonical),
		CanonicalURL:  canonical,
		Formats:       formats,
	}
	if d.ID == "" {
		d.ID = FallbackID(canonical)
	}
	return d, nil
}

// FallbackID is a short stable id derived from the canonical URL.
func FallbackID(canonical string) string {
	sum := sha1.Sum([]byte(canonical))
	return base64.RawURLEncoding.EncodeToString(sum[:])[:fallbackIDLength]
}

// pickThumbnail prefers the explicit field; otherwise the last list entry,
// which upstreams conventionally make the largest.
func pickThumbnail(explicit string, list []string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	for i := len(list) - 1; i >= 0; i-- {
		if t := strings.TrimSpace(list[i]); t != "" {
			return t
		}
	}
	return ""
}

// deriveKind needs corroborating image-extension evidence before calling
// something a photo; a missing duration alone is not enough.
func deriveKind(duration float64, formats []media.Format, canonical string) media.Kind {
	if duration > 0 {
		return media.Video
	}
	for _, f := range formats {
		if media.ImageExtensions[f.Extension] {
			return media.Photo
		}
	}
	if media.ImageExtensions[extOf(canonical)] {
		return media.Photo
	}
	return media.Video
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// extOf returns the lower-case extension of a URL's path, if any.
func extOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return normalizeExt(path.Ext(u.Path))
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
