// Package credentials locates cookie material for platforms that gate
// content behind a login.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"snag/internal/media"
)

// Material is opaque auth material handed to extractors. The zero value
// means "nothing available", which is a normal state.
type Material struct {
	CookieFile string
}

// Empty reports whether no credential is available.
func (m Material) Empty() bool { return m.CookieFile == "" }

// Provider returns auth material for a URL.
type Provider interface {
	Lookup(ctx context.Context, rawURL string, platform media.Platform) (Material, error)
}

// None never has credentials.
type None struct{}

func (None) Lookup(context.Context, string, media.Platform) (Material, error) {
	return Material{}, nil
}

// Dir looks up Netscape cookie files in a directory: <platform>.txt first,
// then a shared cookies.txt.
type Dir struct {
	Root string
}

func (d Dir) Lookup(_ context.Context, _ string, platform media.Platform) (Material, error) {
	if d.Root == "" {
		return Material{}, nil
	}
	candidates := []string{
		filepath.Join(d.Root, string(platform)+".txt"),
		filepath.Join(d.Root, "cookies.txt"),
	}
	for _, path := range candidates {
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Material{}, fmt.Errorf("checking cookie file: %w", err)
		}
		if info.Mode().IsRegular() && info.Size() > 0 {
			return Material{CookieFile: path}, nil
		}
	}
	return Material{}, nil
}

// Gated is the set of platforms known to require login for most content.
type Gated map[media.Platform]bool

// NewGated builds the set from platform names, rejecting unknown ones.
func NewGated(names []string) (Gated, error) {
	g := make(Gated, len(names))
	for _, n := range names {
		p, err := media.ParsePlatform(n)
		if err != nil {
			return nil, err
		}
		g[p] = true
	}
	return g, nil
}

// Requires reports whether unauthenticated access to p is expected to fail.
func (g Gated) Requires(p media.Platform) bool { return g[p] }
