package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/anil-gorti/wone-india-race-registry-builder/internal/models"
)

// RawRecord is one untyped record as a source returned it. The shape is
// source-specific; the normalizer's fallback tables decide which keys
// matter. A RawRecord lives only for the duration of one Normalize call.
type RawRecord = map[string]any

// SourceStream is the ordered output of one source adapter invocation.
type SourceStream struct {
	Platform models.PlatformTag
	Events   []models.CanonicalEvent
}

// FetchedDocument represents the raw result of a fetch operation.
type FetchedDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
	FetchedAt   time.Time
	Headers     map[string][]string
}

// Fetcher retrieves raw content from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedDocument, error)
}

// Strategy executes the ingestion process for one configured platform
// and returns its normalized event stream.
type Strategy interface {
	Run(ctx context.Context, cfg PlatformConfig, p *Pipeline) (SourceStream, error)
}

// SchemaError reports a source payload whose structure is not the
// expected list or mapping shape. It aborts that source only.
type SchemaError struct {
	Platform models.PlatformTag
	Detail   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error from %s: %s", e.Platform, e.Detail)
}

// MalformedRecordError reports a record that is missing a required field
// after normalization. It aborts that source only; sibling sources
// continue unaffected.
type MalformedRecordError struct {
	Platform models.PlatformTag
	Field    string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record from %s: missing required field %q", e.Platform, e.Field)
}
