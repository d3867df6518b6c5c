// Package media defines the shared types for the snag resolution pipeline.
package media

import (
	"fmt"
	"strings"
)

// Platform is the coarse source label produced by the classifier.
type Platform string

const (
	YouTube   Platform = "youtube"
	Instagram Platform = "instagram"
	Facebook  Platform = "facebook"
	Twitter   Platform = "twitter"
	TikTok    Platform = "tiktok"
	Vimeo     Platform = "vimeo"
	Other     Platform = "other"
	Unknown   Platform = "unknown"
)

// Platforms lists every label in the fixed enumeration.
var Platforms = []Platform{YouTube, Instagram, Facebook, Twitter, TikTok, Vimeo, Other, Unknown}

// ParsePlatform maps a config string onto a Platform.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Platforms {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// Kind is derived from the descriptor, never asserted by the upstream source.
type Kind string

const (
	Video Kind = "video"
	Photo Kind = "photo"
)

// Tier is the caller-selected target resolution class.
type Tier string

const (
	SD Tier = "sd"
	HD Tier = "hd"
)

// ParseTier validates a quality tier string.
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case SD:
		return SD, nil
	case HD:
		return HD, nil
	default:
		return "", fmt.Errorf("unsupported quality %q (valid: sd, hd)", s)
	}
}

// KindHint lets a caller force photo or video selection.
type KindHint string

const (
	HintAuto  KindHint = "auto"
	HintVideo KindHint = "video"
	HintPhoto KindHint = "photo"
)

// ParseKindHint validates a media kind hint. Empty means auto.
func ParseKindHint(s string) (KindHint, error) {
	switch KindHint(strings.ToLower(strings.TrimSpace(s))) {
	case "", HintAuto:
		return HintAuto, nil
	case HintVideo:
		return HintVideo, nil
	case HintPhoto:
		return HintPhoto, nil
	default:
		return "", fmt.Errorf("unsupported media kind %q (valid: auto, video, photo)", s)
	}
}

// CodecNone marks an absent track.
const CodecNone = "none"

// ImageExtensions is the fixed set of still-image extensions.
var ImageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "webp": true, "gif": true, "bmp": true,
}

// Format is one concrete rendition of a media item.
type Format struct {
	FormatID   string `json:"formatId"`
	Extension  string `json:"extension"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FileSize   *int64 `json:"fileSizeBytes"`
	VideoCodec string `json:"videoCodec"`
	AudioCodec string `json:"audioCodec"`
	DirectURL  string `json:"directUrl,omitempty"`
}

// HasVideo reports whether the format carries a video track (unknown counts as present).
func (f Format) HasVideo() bool { return f.VideoCodec != CodecNone }

// HasAudio reports whether the format carries an audio track (unknown counts as present).
func (f Format) HasAudio() bool { return f.AudioCodec != CodecNone }

// IsImage reports whether the format is a still image.
func (f Format) IsImage() bool {
	return f.VideoCodec == CodecNone && f.AudioCodec == CodecNone
}

// Area is width × height in pixels; 0 when either is unknown.
func (f Format) Area() int { return f.Width * f.Height }

// Descriptor is one resolved media item. It is built once per request and not mutated afterwards.
type Descriptor struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	ThumbnailURL  string   `json:"thumbnailUrl"`
	Duration      float64  `json:"durationSeconds"`
	Uploader      string   `json:"uploader"`
	UploaderID    string   `json:"uploaderId"`
	Platform      Platform `json:"sourcePlatform"`
	PlatformLabel string   `json:"platformLabel,omitempty"`
	Kind          Kind     `json:"mediaKind"`
	CanonicalURL  string   `json:"canonicalUrl"`
	Formats       []Format `json:"formats"`
}

// Request is what the controller layer hands to the pipeline.
type Request struct {
	URL     string   `json:"url"`
	Quality string   `json:"quality"`
	Kind    KindHint `json:"kind,omitempty"`
}

// Info is the response projection of a Descriptor.
type Info struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Thumbnail     string   `json:"thumbnail,omitempty"`
	Duration      float64  `json:"duration"`
	Uploader      string   `json:"uploader"`
	UploaderID    string   `json:"uploaderId"`
	Platform      Platform `json:"platform"`
	PlatformLabel string   `json:"platformLabel,omitempty"`
	Kind          Kind     `json:"mediaKind"`
	URL           string   `json:"url"`
	Extractor     string   `json:"extractor"`
}

// Response is the success/failure envelope returned to callers.
type Response struct {
	Success        bool    `json:"success"`
	Info           *Info   `json:"info,omitempty"`
	DownloadURL    string  `json:"downloadUrl,omitempty"`
	SelectedFormat *Format `json:"selectedFormat,omitempty"`
	Degraded       bool    `json:"degraded,omitempty"`
	Error          string  `json:"error,omitempty"`
	Code           string  `json:"code,omitempty"`
}

// NewInfo projects a descriptor for display.
func NewInfo(d *Descriptor, extractor string) *Info {
	return &Info{
		ID:            d.ID,
		Title:         d.Title,
		Description:   d.Description,
		Thumbnail:     d.ThumbnailURL,
		Duration:      d.Duration,
		Uploader:      d.Uploader,
		UploaderID:    d.UploaderID,
		Platform:      d.Platform,
		PlatformLabel: d.PlatformLabel,
		Kind:          d.Kind,
		URL:           d.CanonicalURL,
		Extractor:     extractor,
	}
}
