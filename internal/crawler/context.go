package crawler

import "github.com/gocolly/colly/v2"

// Stage tags a request/response pair with the crawl state that issued it and
// determines which handler and context fields apply.
type Stage string

// Crawl stages.
const (
	StageSetCity Stage = "set_city"
	StageList    Stage = "list"
	StageDetail  Stage = "detail"
)

// RequestContext is the immutable per-request metadata bag. It travels with
// the request through the fetch engine so interleaved callbacks never rely on
// shared mutable state.
type RequestContext struct {
	Stage            Stage
	RootCategorySlug string
	Page             int
	CategorySlug     string
	ProductURL       string
}

const (
	requestContextKey = "crawl_context"
	retryAttemptKey   = "retry_attempt"
)

// newCollyContext wraps a RequestContext into a fresh colly context.
func newCollyContext(rc RequestContext) *colly.Context {
	ctx := colly.NewContext()
	ctx.Put(requestContextKey, rc)
	return ctx
}

// requestContext extracts the RequestContext from a request, returning the
// zero value when absent.
func requestContext(r *colly.Request) RequestContext {
	if r == nil || r.Ctx == nil {
		return RequestContext{}
	}
	if rc, ok := r.Ctx.GetAny(requestContextKey).(RequestContext); ok {
		return rc
	}
	return RequestContext{}
}

// retryAttempt reads the attempt counter for a request, zero when unset.
func retryAttempt(r *colly.Request) int {
	if r == nil || r.Ctx == nil {
		return 0
	}
	if n, ok := r.Ctx.GetAny(retryAttemptKey).(int); ok {
		return n
	}
	return 0
}

// bumpRetryAttempt records that one more attempt has been spent.
func bumpRetryAttempt(r *colly.Request) {
	if r != nil && r.Ctx != nil {
		r.Ctx.Put(retryAttemptKey, retryAttempt(r)+1)
	}
}
