// Package discover locates external tools once per process.
package discover

import (
	"os/exec"
)

// Tools holds resolved executable paths. An empty path means unavailable.
type Tools struct {
	YTDLP string
}

var lookPath = exec.LookPath

// Discover resolves configured tool names to absolute paths. A configured
// value that is already a path is still checked for executability.
func Discover(ytdlp string) Tools {
	var t Tools
	if ytdlp == "" {
		ytdlp = "yt-dlp"
	}
	if p, err := lookPath(ytdlp); err == nil {
		t.YTDLP = p
	}
	return t
}
