package failure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindCode(t *testing.T) {
	tests := []struct {
		kind Kind
		want Code
	}{
		{InvalidInput, CodeInvalidURL},
		{UnsupportedSource, CodeUnsupportedPlatform},
		{AuthRequired, CodeMediaUnavailable},
		{NotFound, CodeMediaUnavailable},
		{NoSuitableFormat, CodeQualityNotFound},
		{UpstreamBlocked, CodeExtractionError},
		{Timeout, CodeExtractionError},
		{Internal, CodeUnknownError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Code())
			assert.NotEmpty(t, tt.kind.Remedy())
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("fetching page: %w", New(NotFound, "gone"))
	assert.Equal(t, NotFound, KindOf(wrapped))
	assert.Equal(t, Timeout, KindOf(fmt.Errorf("calling api: %w", context.DeadlineExceeded)))
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.Equal(t, Internal, KindOf(nil))
}

func TestAttributeKeepsKind(t *testing.T) {
	err := Attribute("vimeo", fmt.Errorf("config: %w", New(UpstreamBlocked, "status 403")))
	assert.Equal(t, UpstreamBlocked, err.Kind)
	assert.Equal(t, "vimeo", err.Source)
	assert.True(t, strings.HasPrefix(err.Error(), "vimeo: upstream_blocked"))

	plain := Attribute("ytdlp", context.DeadlineExceeded)
	assert.Equal(t, Timeout, plain.Kind)
	assert.ErrorIs(t, plain, context.DeadlineExceeded)
}

func TestFromStatus(t *testing.T) {
	assert.Equal(t, NotFound, FromStatus(404))
	assert.Equal(t, UpstreamBlocked, FromStatus(429))
	assert.Equal(t, UpstreamBlocked, FromStatus(503))
	assert.Equal(t, Internal, FromStatus(302))
}

func TestResolutionFailedKind(t *testing.T) {
	attempt := func(k Kind, src string) *Error { return &Error{Kind: k, Source: src} }

	tests := []struct {
		name     string
		attempts []*Error
		want     Kind
	}{
		{"none", nil, UnsupportedSource},
		{"all auth", []*Error{attempt(AuthRequired, "a"), attempt(AuthRequired, "b")}, AuthRequired},
		{"all internal", []*Error{attempt(Internal, "a")}, Internal},
		{"mixed transient", []*Error{attempt(Timeout, "a"), attempt(UpstreamBlocked, "b")}, UpstreamBlocked},
		{"auth beats transient", []*Error{attempt(Timeout, "a"), attempt(AuthRequired, "b")}, AuthRequired},
		{"not found beats unsupported", []*Error{attempt(UnsupportedSource, "a"), attempt(NotFound, "b")}, NotFound},
		{"unsupported beats internal", []*Error{attempt(Internal, "a"), attempt(UnsupportedSource, "b")}, UnsupportedSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rf := &ResolutionFailed{URL: "https://example.com", Attempts: tt.attempts}
			assert.Equal(t, tt.want, rf.Kind())
			assert.Equal(t, tt.want, KindOf(fmt.Errorf("resolving: %w", rf)))
		})
	}
}

func TestResolutionFailedUnwrap(t *testing.T) {
	rf := &ResolutionFailed{
		URL: "https://example.com/v",
		Attempts: []*Error{
			{Kind: Timeout, Source: "first", Err: context.DeadlineExceeded},
			{Kind: UpstreamBlocked, Source: "second", Msg: "status 429"},
		},
	}
	require.ErrorIs(t, rf, context.DeadlineExceeded)

	var fe *Error
	require.ErrorAs(t, rf, &fe)
	assert.Equal(t, "first", fe.Source)

	assert.Equal(t, "upstream_blocked x1, timeout x1", rf.Summary())
	assert.Contains(t, rf.Error(), "all 2 extractors failed")
	assert.Contains(t, Message(rf), "upstream_blocked x1")
}
