package extract

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"snag/internal/failure"
	"snag/internal/httputil"
	"snag/internal/media"
)

// directHead is enough to sniff the type and reach the size header of
// common image formats, including JPEGs with a large EXIF block.
const directHead = 64 * 1024

// Direct handles links that point straight at an image file.
type Direct struct {
	base
	client *http.Client
}

// NewDirect creates the extractor.
func NewDirect(client *http.Client, timeout time.Duration) *Direct {
	return &Direct{base: base{timeout: timeout}, client: client}
}

func (d *Direct) Name() string                { return "direct" }
func (d *Direct) Platforms() []media.Platform { return nil }

func (d *Direct) Supports(t Target) bool {
	return media.ImageExtensions[extOf(t.URL)]
}

func (d *Direct) Extract(ctx context.Context, t Target) (*media.Descriptor, error) {
	resp, err := httputil.Get(ctx, d.client, t.URL, "")
	if err != nil {
		return nil, transportErr(err, "image")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusErr(resp.StatusCode, "image host")
	}

	head, err := io.ReadAll(io.LimitReader(resp.Body, directHead))
	if err != nil {
		return nil, transportErr(err, "image")
	}
	f, err := sniffImage(head, resp.Request.URL.String())
	if err != nil {
		return nil, err
	}
	if resp.ContentLength > 0 {
		size := resp.ContentLength
		f.FileSize = &size
	}

	return Normalize(Raw{
		Title:     fileTitle(resp.Request.URL.Path),
		Thumbnail: f.DirectURL,
		URL:       t.URL,
		Formats:   []media.Format{f},
	}, t.Platform)
}

// sniffImage checks the leading bytes really are an image and reads its
// dimensions where the decoder is available.
func sniffImage(head []byte, finalURL string) (media.Format, error) {
	mt := mimetype.Detect(head)
	if !strings.HasPrefix(mt.String(), "image/") {
		return media.Format{}, fail(failure.UnsupportedSource, "link serves %s, not an image", mt.String())
	}

	f := media.Format{
		FormatID:   "original",
		Extension:  strings.TrimPrefix(mt.Extension(), "."),
		VideoCodec: media.CodecNone,
		AudioCodec: media.CodecNone,
		DirectURL:  finalURL,
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(head)); err == nil {
		f.Width, f.Height = cfg.Width, cfg.Height
	}
	return f, nil
}

func fileTitle(p string) string {
	name := p[strings.LastIndex(p, "/")+1:]
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}
