// Package sink delivers canonical items to their downstream destination.
// Providers are pluggable: a local JSONL file, Postgres, or a Pub/Sub topic.
package sink

import (
	"context"

	"github.com/alkoparse/alkoteka-crawler/internal/catalog"
)

// Sink consumes canonical items. Implementations must be safe for concurrent
// Emit calls; the crawl's callbacks interleave arbitrarily.
type Sink interface {
	Emit(ctx context.Context, item *catalog.Item) error
	Close(ctx context.Context) error
}
