package extract

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snag/internal/failure"
	"snag/internal/media"
)

func TestYouTubeFormat(t *testing.T) {
	tests := []struct {
		name      string
		in        youtube.Format
		wantExt   string
		wantVideo string
		wantAudio string
	}{
		{
			name:      "muxed",
			in:        youtube.Format{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, Width: 640, Height: 360, AudioChannels: 2},
			wantExt:   "mp4",
			wantVideo: "avc1.42001E",
			wantAudio: "mp4a.40.2",
		},
		{
			name:      "video only",
			in:        youtube.Format{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, Width: 1920, Height: 1080},
			wantExt:   "mp4",
			wantVideo: "avc1.640028",
			wantAudio: media.CodecNone,
		},
		{
			name:      "audio only",
			in:        youtube.Format{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, AudioChannels: 2},
			wantExt:   "webm",
			wantVideo: media.CodecNone,
			wantAudio: "opus",
		},
		{
			name:      "audio mp4 becomes m4a",
			in:        youtube.Format{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, AudioChannels: 2},
			wantExt:   "m4a",
			wantVideo: media.CodecNone,
			wantAudio: "mp4a.40.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := youtubeFormat(tt.in)
			assert.Equal(t, fmt.Sprint(tt.in.ItagNo), got.FormatID)
			assert.Equal(t, tt.wantExt, got.Extension)
			assert.Equal(t, tt.wantVideo, got.VideoCodec)
			assert.Equal(t, tt.wantAudio, got.AudioCodec)
			assert.Equal(t, tt.in.Height, got.Height)
		})
	}
}

func TestYouTubeFormatSize(t *testing.T) {
	got := youtubeFormat(youtube.Format{ItagNo: 22, MimeType: "video/mp4", ContentLength: 1234})
	require.NotNil(t, got.FileSize)
	assert.EqualValues(t, 1234, *got.FileSize)

	assert.Nil(t, youtubeFormat(youtube.Format{ItagNo: 22}).FileSize)
}

func TestYouTubeRaw(t *testing.T) {
	v := &youtube.Video{
		ID:        "dQw4w9WgXcQ",
		Title:     "Never Gonna Give You Up",
		Author:    "Rick Astley",
		ChannelID: "UCuAXFkgsw1L7xaCfnd5JJOw",
		Duration:  213 * time.Second,
		Thumbnails: youtube.Thumbnails{
			{URL: "https://i.ytimg.com/vi/dQw4w9WgXcQ/default.jpg"},
			{URL: "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg"},
		},
		Formats: youtube.FormatList{
			{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, Width: 640, Height: 360, AudioChannels: 2, URL: "https://rr1.googlevideo.com/videoplayback?itag=18"},
		},
	}

	d, err := Normalize(youtubeRaw(v, "https://youtu.be/dQw4w9WgXcQ"), media.YouTube)
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", d.ID)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", d.CanonicalURL)
	assert.Equal(t, "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg", d.ThumbnailURL)
	assert.Equal(t, 213.0, d.Duration)
	assert.Equal(t, media.Video, d.Kind)
	assert.Equal(t, "Rick Astley", d.Uploader)
	require.Len(t, d.Formats, 1)
	assert.Equal(t, "18", d.Formats[0].FormatID)
}

func TestYouTubeKind(t *testing.T) {
	tests := []struct {
		err  error
		want failure.Kind
	}{
		{youtube.ErrLoginRequired, failure.AuthRequired},
		{fmt.Errorf("wrapped: %w", youtube.ErrVideoPrivate), failure.NotFound},
		{youtube.ErrNotPlayableInEmbed, failure.NotFound},
		{youtube.ErrVideoIDMinLength, failure.UnsupportedSource},
		{&youtube.ErrPlayabiltyStatus{Status: "UNPLAYABLE", Reason: "geo"}, failure.NotFound},
		{youtube.ErrUnexpectedStatusCode(429), failure.UpstreamBlocked},
		{youtube.ErrUnexpectedStatusCode(404), failure.NotFound},
		{errors.New("boom"), failure.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, youtubeKind(tt.err))
		})
	}
}

func TestYouTubeSupports(t *testing.T) {
	y := NewYouTube(nil, time.Second)
	assert.True(t, y.Supports(Target{Platform: media.YouTube}))
	assert.False(t, y.Supports(Target{Platform: media.Vimeo}))
	assert.Equal(t, time.Second, TimeoutOf(y))
	assert.False(t, Generic(y))
}
