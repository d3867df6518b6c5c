package extract

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"snag/internal/failure"
	"snag/internal/media"
)

// YouTube resolves youtube.com and youtu.be links through the innertube API.
type YouTube struct {
	base
	client *youtube.Client
}

// NewYouTube creates a YouTube extractor using hc for all requests.
func NewYouTube(hc *http.Client, timeout time.Duration) *YouTube {
	return &YouTube{
		base:   base{timeout: timeout},
		client: &youtube.Client{HTTPClient: hc},
	}
}

func (y *YouTube) Name() string                { return "youtube" }
func (y *YouTube) Platforms() []media.Platform { return []media.Platform{media.YouTube} }
func (y *YouTube) Supports(t Target) bool      { return supportsPlatform(y, t) }

func (y *YouTube) Extract(ctx context.Context, t Target) (*media.Descriptor, error) {
	v, err := y.video(ctx, t)
	if err != nil {
		return nil, err
	}
	return Normalize(youtubeRaw(v, t.URL), media.YouTube)
}

// Playable picks the tallest muxed rendition at or below maxHeight.
func (y *YouTube) Playable(ctx context.Context, t Target, maxHeight int) (string, error) {
	v, err := y.video(ctx, t)
	if err != nil {
		return "", err
	}
	var best *youtube.Format
	for i := range v.Formats {
		f := &v.Formats[i]
		if f.AudioChannels == 0 || f.Width == 0 || f.Height > maxHeight {
			continue
		}
		if best == nil || f.Height > best.Height {
			best = f
		}
	}
	if best == nil {
		return "", fail(failure.NoSuitableFormat, "no muxed rendition at or below %dp", maxHeight)
	}
	return y.streamURL(ctx, v, best)
}

// Materialize deciphers the stream URL for a format listed without one.
func (y *YouTube) Materialize(ctx context.Context, t Target, f media.Format) (string, error) {
	itag, err := strconv.Atoi(f.FormatID)
	if err != nil {
		return "", fail(failure.Internal, "format id %q is not an itag", f.FormatID)
	}
	v, err := y.video(ctx, t)
	if err != nil {
		return "", err
	}
	for i := range v.Formats {
		if v.Formats[i].ItagNo == itag {
			return y.streamURL(ctx, v, &v.Formats[i])
		}
	}
	return "", fail(failure.NotFound, "itag %d no longer offered", itag)
}

func (y *YouTube) video(ctx context.Context, t Target) (*youtube.Video, error) {
	v, err := y.client.GetVideoContext(ctx, t.URL)
	if err != nil {
		return nil, failure.Wrap(youtubeKind(err), err, "fetching video metadata")
	}
	return v, nil
}

func (y *YouTube) streamURL(ctx context.Context, v *youtube.Video, f *youtube.Format) (string, error) {
	u, err := y.client.GetStreamURLContext(ctx, v, f)
	if err != nil {
		return "", failure.Wrap(youtubeKind(err), err, "resolving stream url for itag %d", f.ItagNo)
	}
	return u, nil
}

func youtubeKind(err error) failure.Kind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return failure.Timeout
	case errors.Is(err, youtube.ErrLoginRequired):
		return failure.AuthRequired
	case errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return failure.NotFound
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return failure.UnsupportedSource
	}

	var playability *youtube.ErrPlayabiltyStatus
	if errors.As(err, &playability) {
		return failure.NotFound
	}

	var status youtube.ErrUnexpectedStatusCode
	if errors.As(err, &status) {
		return failure.FromStatus(int(status))
	}

	return failure.KindOf(err)
}

func youtubeRaw(v *youtube.Video, pageURL string) Raw {
	raw := Raw{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		Duration:    v.Duration.Seconds(),
		Uploader:    v.Author,
		UploaderID:  v.ChannelID,
		URL:         pageURL,
	}
	if v.ID != "" {
		raw.URL = "https://www.youtube.com/watch?v=" + v.ID
	}
	for _, th := range v.Thumbnails {
		raw.Thumbnails = append(raw.Thumbnails, th.URL)
	}
	for _, f := range v.Formats {
		raw.Formats = append(raw.Formats, youtubeFormat(f))
	}
	return raw
}

// youtubeFormat converts an innertube format. The mime type carries both
// the container and the codec list, e.g. `video/mp4; codecs="avc1.4d401f, mp4a.40.2"`.
func youtubeFormat(f youtube.Format) media.Format {
	out := media.Format{
		FormatID:   strconv.Itoa(f.ItagNo),
		Width:      f.Width,
		Height:     f.Height,
		VideoCodec: media.CodecNone,
		AudioCodec: media.CodecNone,
		DirectURL:  f.URL,
	}
	if f.ContentLength > 0 {
		size := int64(f.ContentLength)
		out.FileSize = &size
	}

	mt, params, err := mime.ParseMediaType(f.MimeType)
	if err != nil {
		return out
	}
	if _, sub, ok := strings.Cut(mt, "/"); ok {
		out.Extension = sub
	}
	if out.Extension == "mp4" && strings.HasPrefix(mt, "audio/") {
		out.Extension = "m4a"
	}

	var codecs []string
	for _, c := range strings.Split(params["codecs"], ",") {
		if c = strings.TrimSpace(c); c != "" {
			codecs = append(codecs, c)
		}
	}
	hasVideo := f.Width > 0 || strings.HasPrefix(mt, "video/")
	hasAudio := f.AudioChannels > 0 || strings.HasPrefix(mt, "audio/") || (hasVideo && len(codecs) >= 2)

	switch {
	case hasVideo && hasAudio && len(codecs) >= 2:
		out.VideoCodec, out.AudioCodec = codecs[0], codecs[1]
	case hasVideo && hasAudio:
		out.VideoCodec, out.AudioCodec = firstOr(codecs, ""), ""
	case hasVideo:
		out.VideoCodec = firstOr(codecs, "")
	case hasAudio:
		out.AudioCodec = firstOr(codecs, "")
	}
	return out
}

func firstOr(s []string, def string) string {
	if len(s) > 0 {
		return s[0]
	}
	return def
}
