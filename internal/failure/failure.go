// Package failure classifies resolution errors and maps them onto
// caller-facing codes and remedies.
package failure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind is one entry of the error taxonomy.
type Kind int

const (
	Internal Kind = iota
	InvalidInput
	UnsupportedSource
	AuthRequired
	UpstreamBlocked
	Timeout
	NotFound
	NoSuitableFormat
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case UnsupportedSource:
		return "unsupported_source"
	case AuthRequired:
		return "auth_required"
	case UpstreamBlocked:
		return "upstream_blocked"
	case Timeout:
		return "timeout"
	case NotFound:
		return "not_found"
	case NoSuitableFormat:
		return "no_suitable_format"
	default:
		return "internal"
	}
}

// Code is the response-level error code.
type Code string

const (
	CodeInvalidURL          Code = "INVALID_URL"
	CodeUnsupportedPlatform Code = "UNSUPPORTED_PLATFORM"
	CodeMediaUnavailable    Code = "MEDIA_UNAVAILABLE"
	CodeQualityNotFound     Code = "QUALITY_NOT_FOUND"
	CodeExtractionError     Code = "EXTRACTION_ERROR"
	CodeUnknownError        Code = "UNKNOWN_ERROR"
)

// Code maps the kind onto the response taxonomy.
func (k Kind) Code() Code {
	switch k {
	case InvalidInput:
		return CodeInvalidURL
	case UnsupportedSource:
		return CodeUnsupportedPlatform
	case AuthRequired, NotFound:
		return CodeMediaUnavailable
	case NoSuitableFormat:
		return CodeQualityNotFound
	case UpstreamBlocked, Timeout:
		return CodeExtractionError
	default:
		return CodeUnknownError
	}
}

// Remedy is the user-facing hint for the kind.
func (k Kind) Remedy() string {
	switch k {
	case InvalidInput:
		return "Check the link: it must be a full http(s) URL, and quality must be sd or hd."
	case UnsupportedSource:
		return "This site is not supported. Try a link to the post or video page itself."
	case AuthRequired:
		return "This platform requires a login. Export your browser cookies for it and try again."
	case UpstreamBlocked:
		return "The platform refused or throttled the request. Wait a few minutes and retry."
	case Timeout:
		return "The platform took too long to respond. Retry later."
	case NotFound:
		return "The media is private, removed, age-restricted or not available in this region. Try a different item."
	case NoSuitableFormat:
		return "No rendition matches the requested quality. Try the other quality setting."
	default:
		return "Something unexpected went wrong while resolving the link. Retry, or report the URL."
	}
}

// Error is a classified failure, usually attributed to one extractor.
type Error struct {
	Kind   Kind
	Source string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an unattributed error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err with the given kind.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Attribute returns err classified and attributed to source. Already
// classified errors keep their kind; anything else goes through KindOf.
func Attribute(source string, err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		out := *fe
		out.Source = source
		return &out
	}
	return &Error{Kind: KindOf(err), Source: source, Err: err}
}

// KindOf classifies an arbitrary error.
func KindOf(err error) Kind {
	if err == nil {
		return Internal
	}
	var rf *ResolutionFailed
	if errors.As(err, &rf) {
		return rf.Kind()
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return Timeout
		}
		return UpstreamBlocked
	}
	return Internal
}

// FromStatus classifies a non-success upstream HTTP status.
func FromStatus(status int) Kind {
	switch {
	case status == 404 || status == 410:
		return NotFound
	case status == 401 || status == 403 || status == 429:
		return UpstreamBlocked
	case status >= 500:
		return UpstreamBlocked
	default:
		return Internal
	}
}

// Message renders an actionable message for err.
func Message(err error) string {
	kind := KindOf(err)
	var rf *ResolutionFailed
	if errors.As(err, &rf) && len(rf.Attempts) > 0 {
		return fmt.Sprintf("%s (%s)", kind.Remedy(), rf.Summary())
	}
	return kind.Remedy()
}
