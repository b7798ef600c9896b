package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalRequests tracks dispatched requests, labeled by stage.
	TotalRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alkoparse_requests_total",
		Help: "The total number of requests dispatched, labeled by crawl stage.",
	}, []string{"stage"})
	// TotalRetries tracks requests re-submitted after a transient failure.
	TotalRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alkoparse_retries_total",
		Help: "The total number of request retries.",
	})
	// TotalDrops tracks non-fatal pages and products abandoned after parsing
	// or fetching failed, labeled by stage.
	TotalDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alkoparse_drops_total",
		Help: "The total number of dropped pages and products, labeled by crawl stage.",
	}, []string{"stage"})
	// TotalListingPages tracks successfully parsed catalog pages.
	TotalListingPages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alkoparse_listing_pages_total",
		Help: "The total number of catalog listing pages parsed.",
	})
	// TotalItems tracks canonical items emitted to the sink.
	TotalItems = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alkoparse_items_total",
		Help: "The total number of canonical items emitted.",
	})
)
