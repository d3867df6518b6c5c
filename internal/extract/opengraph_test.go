package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snag/internal/credentials"
	"snag/internal/failure"
	"snag/internal/httputil"
	"snag/internal/media"
)

const ogVideoPage = `<html><head>
<title>fallback title</title>
<meta property="og:title" content="Clip of the day">
<meta property="og:description" content="A short clip">
<meta property="og:url" content="/watch/99">
<meta property="og:image" content="https://cdn.example.com/thumb.jpg">
<meta property="og:video:secure_url" content="https://cdn.example.com/v/99.mp4">
<meta property="og:video:type" content="video/mp4">
<meta property="og:video:width" content="1280">
<meta property="og:video:height" content="720">
<meta property="video:duration" content="31">
<meta name="author" content="Example Studio">
</head><body></body></html>`

const ogImagePage = `<html><head>
<meta property="og:image" content="https://cdn.example.com/p/1.jpg?size=large">
<meta property="og:image" content="https://cdn.example.com/p/2.jpg">
<meta property="og:image:width" content="1080">
<meta property="og:image:height" content="1350">
</head></html>`

func TestParseOpenGraphVideo(t *testing.T) {
	d, err := parseOpenGraph([]byte(ogVideoPage), "https://example.com/watch/99?ref=home", media.Other)
	require.NoError(t, err)

	assert.Equal(t, "Clip of the day", d.Title)
	assert.Equal(t, "Example Studio", d.Uploader)
	assert.Equal(t, "https://example.com/watch/99", d.CanonicalURL)
	assert.Equal(t, "https://cdn.example.com/thumb.jpg", d.ThumbnailURL)
	assert.Equal(t, media.Video, d.Kind)
	require.Len(t, d.Formats, 1)
	assert.Equal(t, "mp4", d.Formats[0].Extension)
	assert.Equal(t, 720, d.Formats[0].Height)
	assert.Equal(t, 31.0, d.Duration)
}

func TestParseOpenGraphImage(t *testing.T) {
	d, err := parseOpenGraph([]byte(ogImagePage), "https://example.com/p/1", media.Other)
	require.NoError(t, err)

	assert.Equal(t, media.Photo, d.Kind)
	assert.Equal(t, "Unknown Title", d.Title)
	require.Len(t, d.Formats, 1)
	assert.Equal(t, "https://cdn.example.com/p/1.jpg?size=large", d.Formats[0].DirectURL)
	assert.Equal(t, 1350, d.Formats[0].Height)
	assert.True(t, d.Formats[0].IsImage())
}

func TestParseOpenGraphEmbedPlayerIgnored(t *testing.T) {
	page := `<html><head>
<meta property="og:video" content="https://example.com/embed/1">
<meta property="og:video:type" content="text/html">
<meta property="og:image" content="https://example.com/still.png">
</head></html>`
	d, err := parseOpenGraph([]byte(page), "https://example.com/1", media.Other)
	require.NoError(t, err)
	assert.Equal(t, "og:image", d.Formats[0].FormatID)
}

func TestParseOpenGraphNoMedia(t *testing.T) {
	_, err := parseOpenGraph([]byte(`<html><head><title>x</title></head></html>`), "https://example.com", media.Other)
	assert.Equal(t, failure.UnsupportedSource, failure.KindOf(err))
}

func TestOpenGraphLoginWall(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/p/abc/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/accounts/login/?next=/p/abc/", http.StatusFound)
	})
	mux.HandleFunc("/accounts/login/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>log in</html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	o := NewOpenGraph(httputil.NewClient(5*time.Second), time.Second)
	_, err := o.Extract(context.Background(), mustTarget(t, srv.URL+"/p/abc/", media.Instagram))
	assert.Equal(t, failure.AuthRequired, failure.KindOf(err))
}

func TestOpenGraphSendsCookies(t *testing.T) {
	var gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sessionid"); err == nil {
			gotCookie = c.Value
		}
		fmt.Fprint(w, ogImagePage)
	}))
	defer srv.Close()

	tg := mustTarget(t, srv.URL+"/p/1", media.Other)
	cookieFile := filepath.Join(t.TempDir(), "cookies.txt")
	line := tg.Parsed.Hostname() + "\tFALSE\t/\tFALSE\t0\tsessionid\ts3cret\n"
	require.NoError(t, os.WriteFile(cookieFile, []byte(line), 0600))
	tg.Auth = credentials.Material{CookieFile: cookieFile}

	o := NewOpenGraph(httputil.NewClient(5*time.Second), time.Second)
	_, err := o.Extract(context.Background(), tg)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", gotCookie)
}
