package extract

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"snag/internal/failure"
	"snag/internal/media"
)

const vxTwitterAPI = "https://api.vxtwitter.com"

var tweetStatusPattern = regexp.MustCompile(`/(?:i/web/)?status(?:es)?/(\d+)`)

// VxTwitter resolves tweets through the vxtwitter JSON mirror, which
// exposes media URLs without requiring a logged-in session.
type VxTwitter struct {
	base
	client  *resty.Client
	baseURL string
}

// NewVxTwitter creates the extractor. An empty baseURL uses the public mirror.
func NewVxTwitter(client *resty.Client, baseURL string, timeout time.Duration) *VxTwitter {
	if baseURL == "" {
		baseURL = vxTwitterAPI
	}
	return &VxTwitter{base: base{timeout: timeout}, client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (v *VxTwitter) Name() string                { return "vxtwitter" }
func (v *VxTwitter) Platforms() []media.Platform { return []media.Platform{media.Twitter} }

func (v *VxTwitter) Supports(t Target) bool {
	return supportsPlatform(v, t) && tweetStatusPattern.MatchString(t.Parsed.Path)
}

type vxTweet struct {
	TweetID        string    `json:"tweetID"`
	Text           string    `json:"text"`
	UserName       string    `json:"user_name"`
	UserScreenName string    `json:"user_screen_name"`
	TweetURL       string    `json:"tweetURL"`
	Media          []vxMedia `json:"media_extended"`
}

type vxMedia struct {
	Type           string `json:"type"`
	URL            string `json:"url"`
	ThumbnailURL   string `json:"thumbnail_url"`
	DurationMillis int64  `json:"duration_millis"`
	Size           struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"size"`
}

func (v *VxTwitter) Extract(ctx context.Context, t Target) (*media.Descriptor, error) {
	m := tweetStatusPattern.FindStringSubmatch(t.Parsed.Path)
	if m == nil {
		return nil, fail(failure.UnsupportedSource, "no status id in %s", t.Parsed.Path)
	}

	var tweet vxTweet
	resp, err := v.client.R().
		SetContext(ctx).
		SetResult(&tweet).
		Get(v.baseURL + "/i/status/" + url.PathEscape(m[1]))
	if err != nil {
		return nil, transportErr(err, "vxtwitter api")
	}
	if resp.IsError() {
		return nil, statusErr(resp.StatusCode(), "vxtwitter api")
	}
	return parseVxTweet(&tweet, t.URL)
}

// parseVxTweet uses the first attached media item; multi-image tweets
// resolve to their first image.
func parseVxTweet(tw *vxTweet, pageURL string) (*media.Descriptor, error) {
	if len(tw.Media) == 0 {
		return nil, fail(failure.NotFound, "tweet %s has no media attached", tw.TweetID)
	}
	item := tw.Media[0]

	f := media.Format{
		FormatID:  item.Type,
		Width:     item.Size.Width,
		Height:    item.Size.Height,
		DirectURL: item.URL,
		Extension: extOf(item.URL),
	}
	raw := Raw{
		ID:          tw.TweetID,
		Title:       firstLine(tw.Text),
		Description: tw.Text,
		Thumbnail:   item.ThumbnailURL,
		Uploader:    tw.UserName,
		UploaderID:  tw.UserScreenName,
		URL:         pageURL,
	}
	if tw.TweetURL != "" {
		raw.URL = tw.TweetURL
	}

	switch item.Type {
	case "image":
		f.VideoCodec, f.AudioCodec = media.CodecNone, media.CodecNone
		raw.Thumbnail = item.URL
	case "gif":
		f.AudioCodec = media.CodecNone
		raw.Duration = float64(item.DurationMillis) / 1000
	default:
		raw.Duration = float64(item.DurationMillis) / 1000
	}
	raw.Formats = []media.Format{f}
	return Normalize(raw, media.Twitter)
}

const maxTitleRunes = 100

// firstLine returns the first line of s, cut to maxTitleRunes characters.
func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	n := 0
	for i := range line {
		if n == maxTitleRunes {
			return line[:i]
		}
		n++
	}
	return line
}
