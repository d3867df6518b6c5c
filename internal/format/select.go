// Package format picks one rendition out of a descriptor's format list.
//
// Selection is a pure function of its inputs: the same formats and tier
// always yield the same result.
package format

import (
	"sort"

	"github.com/samber/lo"

	"snag/internal/failure"
	"snag/internal/media"
)

const (
	// SDMaxHeight is the tallest rendition still considered standard definition.
	SDMaxHeight = 480
	// HDTargetHeight is the height the hd tier seeks.
	HDTargetHeight = 1080
)

// compatible extensions for the strict video prefilter.
var compatible = map[string]int{"mp4": 0, "webm": 1}

// TierHeight is the height ceiling associated with a tier.
func TierHeight(tier media.Tier) int {
	if tier == media.HD {
		return HDTargetHeight
	}
	return SDMaxHeight
}

// Select chooses a video rendition for the given tier.
func Select(formats []media.Format, tier media.Tier) (media.Format, error) {
	candidates := Candidates(formats)
	if len(candidates) == 0 {
		return media.Format{}, failure.New(failure.NoSuitableFormat, "no format with a known height among %d", len(formats))
	}

	switch tier {
	case media.SD:
		return pickSD(candidates), nil
	case media.HD:
		return pickHD(candidates), nil
	default:
		return media.Format{}, failure.New(failure.InvalidInput, "unsupported quality %q", tier)
	}
}

// Candidates applies the video prefilter and returns the survivors sorted
// by descending height. The input slice is not modified.
func Candidates(formats []media.Format) []media.Format {
	strict := lo.Filter(formats, func(f media.Format, _ int) bool {
		_, ok := compatible[f.Extension]
		return ok && f.HasVideo() && f.Height > 0
	})
	if len(strict) == 0 {
		strict = lo.Filter(formats, func(f media.Format, _ int) bool { return f.Height > 0 })
	}
	sort.SliceStable(strict, func(i, j int) bool { return rankVideo(strict[i], strict[j]) })
	return strict
}

// rankVideo orders by height, then muxed audio, then mp4 over webm, then size.
func rankVideo(a, b media.Format) bool {
	if a.Height != b.Height {
		return a.Height > b.Height
	}
	if a.HasAudio() != b.HasAudio() {
		return a.HasAudio()
	}
	ea, oka := compatible[a.Extension]
	eb, okb := compatible[b.Extension]
	if oka != okb {
		return oka
	}
	if ea != eb {
		return ea < eb
	}
	return size(a) > size(b)
}

func size(f media.Format) int64 {
	if f.FileSize == nil {
		return 0
	}
	return *f.FileSize
}

// candidates is sorted by descending height.
func pickSD(candidates []media.Format) media.Format {
	if f, ok := lo.Find(candidates, func(f media.Format) bool { return f.Height <= SDMaxHeight }); ok {
		return f
	}
	lowest := candidates[len(candidates)-1].Height
	f, _ := lo.Find(candidates, func(f media.Format) bool { return f.Height == lowest })
	return f
}

// candidates is sorted by descending height, so the first minimum
// distance seen is the taller one on a tie.
func pickHD(candidates []media.Format) media.Format {
	best := candidates[0]
	bestDist := distance(best.Height)
	for _, f := range candidates[1:] {
		if d := distance(f.Height); d < bestDist {
			best, bestDist = f, d
		}
	}
	return best
}

func distance(h int) int {
	if h > HDTargetHeight {
		return h - HDTargetHeight
	}
	return HDTargetHeight - h
}

// extension priority for photos; anything unlisted ranks last.
var photoPriority = map[string]int{
	"jpg": 0, "jpeg": 0, "png": 1, "webp": 2, "gif": 3, "bmp": 4,
}

func photoRank(ext string) int {
	if p, ok := photoPriority[ext]; ok {
		return p
	}
	return len(photoPriority)
}

// SelectPhoto chooses the largest still image. With no recognisable image
// extension the first format is returned as-is.
func SelectPhoto(formats []media.Format) (media.Format, error) {
	if len(formats) == 0 {
		return media.Format{}, failure.New(failure.NoSuitableFormat, "descriptor has no formats")
	}
	images := lo.Filter(formats, func(f media.Format, _ int) bool {
		return media.ImageExtensions[f.Extension]
	})
	if len(images) == 0 {
		return formats[0], nil
	}
	sort.SliceStable(images, func(i, j int) bool {
		a, b := images[i], images[j]
		if a.Area() != b.Area() {
			return a.Area() > b.Area()
		}
		return photoRank(a.Extension) < photoRank(b.Extension)
	})
	return images[0], nil
}
