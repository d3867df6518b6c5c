package failure

import (
	"fmt"
	"sort"
	"strings"
)

// ResolutionFailed is returned when every candidate extractor failed.
// It keeps one entry per attempted extractor, in attempt order.
type ResolutionFailed struct {
	URL      string
	Attempts []*Error
}

func (r *ResolutionFailed) Error() string {
	if len(r.Attempts) == 0 {
		return fmt.Sprintf("no extractor can handle %s", r.URL)
	}
	parts := make([]string, len(r.Attempts))
	for i, a := range r.Attempts {
		parts[i] = a.Error()
	}
	return fmt.Sprintf("all %d extractors failed for %s: %s", len(r.Attempts), r.URL, strings.Join(parts, "; "))
}

// Unwrap exposes every attempt to errors.Is/As.
func (r *ResolutionFailed) Unwrap() []error {
	errs := make([]error, len(r.Attempts))
	for i, a := range r.Attempts {
		errs[i] = a
	}
	return errs
}

// Causes counts attempts per kind.
func (r *ResolutionFailed) Causes() map[Kind]int {
	causes := make(map[Kind]int)
	for _, a := range r.Attempts {
		causes[a.Kind]++
	}
	return causes
}

// Kind is the terminal classification. A unanimous kind wins outright;
// otherwise the most actionable cause present is reported.
func (r *ResolutionFailed) Kind() Kind {
	causes := r.Causes()
	if len(causes) == 0 {
		return UnsupportedSource
	}
	if len(causes) == 1 {
		for k := range causes {
			return k
		}
	}
	for _, k := range []Kind{AuthRequired, NotFound, UpstreamBlocked, Timeout, UnsupportedSource} {
		if causes[k] > 0 {
			return k
		}
	}
	return Internal
}

// Summary lists the distinct causes, e.g. "timeout x1, upstream_blocked x2".
func (r *ResolutionFailed) Summary() string {
	causes := r.Causes()
	kinds := make([]Kind, 0, len(causes))
	for k := range causes {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s x%d", k, causes[k])
	}
	return strings.Join(parts, ", ")
}
