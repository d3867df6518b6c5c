package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"snag/internal/failure"
	"snag/internal/httputil"
	"snag/internal/media"
)

const tiktokStateScript = "script#__UNIVERSAL_DATA_FOR_REHYDRATION__"

// TikTok reads the hydration state embedded in a video page.
type TikTok struct {
	base
	client *http.Client
}

// NewTikTok creates the extractor.
func NewTikTok(client *http.Client, timeout time.Duration) *TikTok {
	return &TikTok{base: base{timeout: timeout}, client: client}
}

func (k *TikTok) Name() string                { return "tiktok" }
func (k *TikTok) Platforms() []media.Platform { return []media.Platform{media.TikTok} }
func (k *TikTok) Supports(t Target) bool      { return supportsPlatform(k, t) }

func (k *TikTok) Extract(ctx context.Context, t Target) (*media.Descriptor, error) {
	resp, err := httputil.Get(ctx, k.client, t.URL, httputil.BrowserUA)
	if err != nil {
		return nil, transportErr(err, "tiktok page")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, statusErr(resp.StatusCode, "tiktok page")
	}
	// Short links redirect to the canonical video page.
	final := resp.Request.URL.String()
	body, err := httputil.ReadAll(resp)
	if err != nil {
		return nil, transportErr(err, "tiktok page")
	}
	return parseTikTokPage(body, final)
}

// flexInt accepts both JSON numbers and numeric strings.
type flexInt int64

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parsing %s as integer: %w", b, err)
	}
	*n = flexInt(v)
	return nil
}

type tiktokState struct {
	Scope struct {
		Detail struct {
			StatusCode int    `json:"statusCode"`
			StatusMsg  string `json:"statusMsg"`
			ItemInfo   struct {
				Item tiktokItem `json:"itemStruct"`
			} `json:"itemInfo"`
		} `json:"webapp.video-detail"`
	} `json:"__DEFAULT_SCOPE__"`
}

type tiktokItem struct {
	ID     string `json:"id"`
	Desc   string `json:"desc"`
	Author struct {
		UniqueID string `json:"uniqueId"`
		Nickname string `json:"nickname"`
	} `json:"author"`
	Video struct {
		Width        int     `json:"width"`
		Height       int     `json:"height"`
		Duration     float64 `json:"duration"`
		PlayAddr     string  `json:"playAddr"`
		DownloadAddr string  `json:"downloadAddr"`
		Cover        string  `json:"cover"`
		OriginCover  string  `json:"originCover"`
		Format       string  `json:"format"`
		CodecType    string  `json:"codecType"`
		BitrateInfo  []struct {
			GearName  string `json:"GearName"`
			CodecType string `json:"CodecType"`
			PlayAddr  struct {
				URLList  []string `json:"UrlList"`
				Width    int      `json:"Width"`
				Height   int      `json:"Height"`
				DataSize flexInt  `json:"DataSize"`
			} `json:"PlayAddr"`
		} `json:"bitrateInfo"`
	} `json:"video"`
	ImagePost *struct {
		Images []struct {
			ImageURL struct {
				URLList []string `json:"urlList"`
			} `json:"imageURL"`
			ImageWidth  int `json:"imageWidth"`
			ImageHeight int `json:"imageHeight"`
		} `json:"images"`
	} `json:"imagePost"`
}

// parseTikTokPage is a pure function of the page body.
func parseTikTokPage(body []byte, pageURL string) (*media.Descriptor, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, failure.Wrap(failure.Internal, err, "parsing tiktok html")
	}

	script := doc.Find(tiktokStateScript).First()
	if script.Length() == 0 {
		return nil, fail(failure.UpstreamBlocked, "tiktok page has no hydration state; likely a captcha or region wall")
	}

	var state tiktokState
	if err := json.Unmarshal([]byte(script.Text()), &state); err != nil {
		return nil, failure.Wrap(failure.Internal, err, "decoding tiktok hydration state")
	}
	detail := state.Scope.Detail
	if detail.StatusCode != 0 {
		return nil, fail(failure.NotFound, "tiktok status %d %s", detail.StatusCode, detail.StatusMsg)
	}
	item := detail.ItemInfo.Item
	if item.ID == "" {
		return nil, fail(failure.NotFound, "tiktok page carries no item")
	}

	raw := Raw{
		ID:          item.ID,
		Title:       firstLine(item.Desc),
		Description: item.Desc,
		Uploader:    item.Author.Nickname,
		UploaderID:  item.Author.UniqueID,
		URL:         pageURL,
		Duration:    item.Video.Duration,
		Thumbnail:   firstNonEmpty(item.Video.OriginCover, item.Video.Cover),
	}

	if item.ImagePost != nil && len(item.ImagePost.Images) > 0 {
		raw.Duration = 0
		for i, img := range item.ImagePost.Images {
			if len(img.ImageURL.URLList) == 0 {
				continue
			}
			u := img.ImageURL.URLList[0]
			raw.Formats = append(raw.Formats, media.Format{
				FormatID:   fmt.Sprintf("image-%d", i),
				Extension:  imageExt(u),
				Width:      img.ImageWidth,
				Height:     img.ImageHeight,
				VideoCodec: media.CodecNone,
				AudioCodec: media.CodecNone,
				DirectURL:  u,
			})
		}
		return Normalize(raw, media.TikTok)
	}

	ext := firstNonEmpty(item.Video.Format, "mp4")
	for _, b := range item.Video.BitrateInfo {
		if len(b.PlayAddr.URLList) == 0 {
			continue
		}
		f := media.Format{
			FormatID:   b.GearName,
			Extension:  ext,
			Width:      b.PlayAddr.Width,
			Height:     b.PlayAddr.Height,
			VideoCodec: b.CodecType,
			DirectURL:  b.PlayAddr.URLList[0],
		}
		if b.PlayAddr.DataSize > 0 {
			size := int64(b.PlayAddr.DataSize)
			f.FileSize = &size
		}
		raw.Formats = append(raw.Formats, f)
	}
	if addr := firstNonEmpty(item.Video.PlayAddr, item.Video.DownloadAddr); addr != "" {
		raw.Formats = append(raw.Formats, media.Format{
			FormatID:   "play",
			Extension:  ext,
			Width:      item.Video.Width,
			Height:     item.Video.Height,
			VideoCodec: item.Video.CodecType,
			DirectURL:  addr,
		})
	}
	return Normalize(raw, media.TikTok)
}

// imageExt reads the extension from TikTok image URLs, which end in
// e.g. "~tplv-photomode-image.jpeg?x-expires=...".
func imageExt(u string) string {
	ext := extOf(u)
	if media.ImageExtensions[ext] {
		return ext
	}
	return "jpeg"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
