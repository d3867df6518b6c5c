package format

import (
	"testing"

	"snag/internal/failure"
	"snag/internal/media"
)

func videoFormats(heights ...int) []media.Format {
	out := make([]media.Format, len(heights))
	for i, h := range heights {
		out[i] = media.Format{
			FormatID:   "f" + string(rune('a'+i)),
			Extension:  "mp4",
			Height:     h,
			Width:      h * 16 / 9,
			VideoCodec: "avc1",
			AudioCodec: "mp4a",
		}
	}
	return out
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		heights []int
		tier    media.Tier
		want    int
	}{
		{"sd boundary inclusive", []int{240, 480, 720, 1080}, media.SD, 480},
		{"sd degrades to smallest", []int{720, 1080}, media.SD, 720},
		{"sd picks tallest under cap", []int{144, 360, 240}, media.SD, 360},
		{"hd exact", []int{720, 1080, 1440}, media.HD, 1080},
		{"hd closest below", []int{900, 1300}, media.HD, 900},
		{"hd tie prefers higher", []int{980, 1180}, media.HD, 1180},
		{"hd tie prefers higher reversed", []int{1180, 980}, media.HD, 1180},
		{"hd single", []int{360}, media.HD, 360},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(videoFormats(tt.heights...), tt.tier)
			if err != nil {
				t.Fatalf("Select() error: %v", err)
			}
			if got.Height != tt.want {
				t.Errorf("Select() height = %d, want %d", got.Height, tt.want)
			}
		})
	}
}

func TestSelectIdempotent(t *testing.T) {
	formats := videoFormats(1440, 720, 980, 1180, 480)
	for _, tier := range []media.Tier{media.SD, media.HD} {
		first, err := Select(formats, tier)
		if err != nil {
			t.Fatalf("Select(%s) error: %v", tier, err)
		}
		second, _ := Select(formats, tier)
		if first.FormatID != second.FormatID {
			t.Errorf("Select(%s) not stable: %s then %s", tier, first.FormatID, second.FormatID)
		}
	}
	if formats[0].Height != 1440 || formats[4].Height != 480 {
		t.Error("Select() reordered its input")
	}
}

func TestSelectPrefilter(t *testing.T) {
	formats := []media.Format{
		{FormatID: "flv", Extension: "flv", Height: 1080, VideoCodec: "h263", AudioCodec: "mp3"},
		{FormatID: "audio", Extension: "m4a", Height: 0, VideoCodec: media.CodecNone, AudioCodec: "mp4a"},
		{FormatID: "webm", Extension: "webm", Height: 720, VideoCodec: "vp9", AudioCodec: "opus"},
	}
	got, err := Select(formats, media.HD)
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if got.FormatID != "webm" {
		t.Errorf("Select() = %s, want webm (strict candidates win over closer flv)", got.FormatID)
	}

	// Nothing passes the strict filter: any known height is acceptable.
	loose := []media.Format{
		{FormatID: "flv", Extension: "flv", Height: 1080, VideoCodec: "h263"},
		{FormatID: "3gp", Extension: "3gp", Height: 240, VideoCodec: "mp4v"},
	}
	got, err = Select(loose, media.SD)
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if got.FormatID != "3gp" {
		t.Errorf("Select() = %s, want 3gp", got.FormatID)
	}
}

func TestSelectTieBreaks(t *testing.T) {
	big, small := int64(9000), int64(100)
	formats := []media.Format{
		{FormatID: "video-only", Extension: "mp4", Height: 720, VideoCodec: "avc1", AudioCodec: media.CodecNone},
		{FormatID: "webm-muxed", Extension: "webm", Height: 720, VideoCodec: "vp9", AudioCodec: "opus", FileSize: &big},
		{FormatID: "mp4-small", Extension: "mp4", Height: 720, VideoCodec: "avc1", AudioCodec: "mp4a", FileSize: &small},
		{FormatID: "mp4-big", Extension: "mp4", Height: 720, VideoCodec: "avc1", AudioCodec: "mp4a", FileSize: &big},
	}
	got, err := Select(formats, media.HD)
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if got.FormatID != "mp4-big" {
		t.Errorf("Select() = %s, want mp4-big", got.FormatID)
	}
}

func TestSelectNoCandidates(t *testing.T) {
	formats := []media.Format{
		{FormatID: "audio", Extension: "m4a", VideoCodec: media.CodecNone, AudioCodec: "mp4a"},
	}
	for _, in := range [][]media.Format{nil, formats} {
		_, err := Select(in, media.SD)
		if failure.KindOf(err) != failure.NoSuitableFormat {
			t.Errorf("Select(%v) kind = %v, want no_suitable_format", in, failure.KindOf(err))
		}
	}
}

func TestSelectUnknownTier(t *testing.T) {
	_, err := Select(videoFormats(720), media.Tier("4k"))
	if failure.KindOf(err) != failure.InvalidInput {
		t.Errorf("kind = %v, want invalid_input", failure.KindOf(err))
	}
}

func TestSelectPhoto(t *testing.T) {
	tests := []struct {
		name    string
		formats []media.Format
		want    string
	}{
		{
			name: "largest area",
			formats: []media.Format{
				{FormatID: "small", Extension: "jpg", Width: 320, Height: 320},
				{FormatID: "large", Extension: "png", Width: 1080, Height: 1350},
			},
			want: "large",
		},
		{
			name: "extension priority on equal area",
			formats: []media.Format{
				{FormatID: "webp", Extension: "webp", Width: 100, Height: 100},
				{FormatID: "png", Extension: "png", Width: 100, Height: 100},
				{FormatID: "jpeg", Extension: "jpeg", Width: 100, Height: 100},
			},
			want: "jpeg",
		},
		{
			name: "images preferred over video",
			formats: []media.Format{
				{FormatID: "clip", Extension: "mp4", Width: 1920, Height: 1080},
				{FormatID: "still", Extension: "gif", Width: 10, Height: 10},
			},
			want: "still",
		},
		{
			name: "first format when nothing looks like an image",
			formats: []media.Format{
				{FormatID: "first", Extension: ""},
				{FormatID: "second", Extension: "bin", Width: 500, Height: 500},
			},
			want: "first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectPhoto(tt.formats)
			if err != nil {
				t.Fatalf("SelectPhoto() error: %v", err)
			}
			if got.FormatID != tt.want {
				t.Errorf("SelectPhoto() = %s, want %s", got.FormatID, tt.want)
			}
		})
	}
}

func TestSelectPhotoEmpty(t *testing.T) {
	if _, err := SelectPhoto(nil); failure.KindOf(err) != failure.NoSuitableFormat {
		t.Errorf("SelectPhoto(nil) kind = %v, want no_suitable_format", failure.KindOf(err))
	}
}
