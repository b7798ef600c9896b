package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alkoparse/alkoteka-crawler/internal/catalog"
	"github.com/alkoparse/alkoteka-crawler/internal/config"
)

type memorySink struct {
	mu    sync.Mutex
	items []*catalog.Item
}

func (m *memorySink) Emit(_ context.Context, item *catalog.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, item)
	return nil
}

func (m *memorySink) Close(context.Context) error {
	return nil
}

func (m *memorySink) Items() []*catalog.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*catalog.Item, len(m.items))
	copy(out, m.items)
	return out
}

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time {
	return c.at
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func testConfig(t *testing.T, apiBase string) Config {
	t.Helper()
	return Config{
		APIBase:        apiBase,
		SiteBase:       "https://alkoteka.com",
		CityName:       "Краснодар",
		PerPage:        2,
		CitiesFile:     writeTempFile(t, "cities.json", `[{"name":"Краснодар","uuid":"test-uuid"}]`),
		CategoriesFile: writeTempFile(t, "categories.txt", "https://alkoteka.com/catalog/vino\n"),
		UserAgent:      "alkoparse-test",
		Parallelism:    2,
		RequestTimeout: 5 * time.Second,
	}
}

func newTestSpider(t *testing.T, cfg Config, out *memorySink) *Spider {
	t.Helper()
	norm := catalog.NewNormalizer(fixedClock{at: time.Unix(1700000000, 0)})
	return NewSpider(cfg, norm, out, zap.NewNop())
}

func TestSpiderCrawlsCategoriesAndPaginates(t *testing.T) {
	var cityCalls, page1Calls, page2Calls, extraPageCalls atomic.Int64
	var cityUUIDSeen atomic.Value

	mux := http.NewServeMux()
	mux.HandleFunc("/city", func(w http.ResponseWriter, r *http.Request) {
		cityCalls.Add(1)
		cityUUIDSeen.Store(r.URL.Query().Get("city_uuid"))
		fmt.Fprint(w, `{"results":{}}`)
	})
	mux.HandleFunc("/product", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			page1Calls.Add(1)
			fmt.Fprint(w, `{"results":[{"slug":"merlot"},{"slug":"beluga","category_slug":"krepkii"},{"slug":""}],"meta":{"has_more_pages":true}}`)
		case "2":
			page2Calls.Add(1)
			fmt.Fprint(w, `{"results":[{"slug":"riesling"}],"meta":{"has_more_pages":false}}`)
		default:
			extraPageCalls.Add(1)
			http.Error(w, "no such page", http.StatusNotFound)
		}
	})
	mux.HandleFunc("/product/", func(w http.ResponseWriter, r *http.Request) {
		slug := path.Base(r.URL.Path)
		fmt.Fprintf(w, `{"results":{"name":"Продукт %s","price":100,"slug":"%s"}}`, slug, slug)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out := &memorySink{}
	spider := newTestSpider(t, testConfig(t, srv.URL), out)
	require.NoError(t, spider.Run(context.Background()))

	require.Equal(t, int64(1), cityCalls.Load())
	require.Equal(t, "test-uuid", cityUUIDSeen.Load())
	require.Equal(t, int64(1), page1Calls.Load())
	require.Equal(t, int64(1), page2Calls.Load())
	require.Equal(t, int64(0), extraPageCalls.Load(), "pagination must stop at the server flag")

	items := out.Items()
	require.Len(t, items, 3)

	urls := make([]string, 0, len(items))
	for _, item := range items {
		urls = append(urls, item.URL)
	}
	sort.Strings(urls)
	require.Equal(t, []string{
		"https://alkoteka.com/product/krepkii/beluga",
		"https://alkoteka.com/product/vino/merlot",
		"https://alkoteka.com/product/vino/riesling",
	}, urls)
}

func TestSpiderCityFailureIsFatal(t *testing.T) {
	var productCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/city", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	mux.HandleFunc("/product", func(w http.ResponseWriter, r *http.Request) {
		productCalls.Add(1)
		fmt.Fprint(w, `{"results":[],"meta":{"has_more_pages":false}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out := &memorySink{}
	spider := newTestSpider(t, testConfig(t, srv.URL), out)

	err := spider.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "set city")
	require.Equal(t, int64(0), productCalls.Load(), "no catalog requests after a failed city set")
	require.Empty(t, out.Items())
}

func TestSpiderMissingCategoriesIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.CategoriesFile = writeTempFile(t, "categories.txt", "# nothing here\n")

	spider := newTestSpider(t, cfg, &memorySink{})
	require.Error(t, spider.Run(context.Background()))
}

func TestSpiderFallsBackToDefaultCity(t *testing.T) {
	var cityUUIDSeen atomic.Value

	mux := http.NewServeMux()
	mux.HandleFunc("/city", func(w http.ResponseWriter, r *http.Request) {
		cityUUIDSeen.Store(r.URL.Query().Get("city_uuid"))
		fmt.Fprint(w, `{"results":{}}`)
	})
	mux.HandleFunc("/product", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[],"meta":{"has_more_pages":false}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.CityName = "Новосибирск" // not in the table

	spider := newTestSpider(t, cfg, &memorySink{})
	require.NoError(t, spider.Run(context.Background()))
	require.Equal(t, config.DefaultCityUUID, cityUUIDSeen.Load())
}

func TestSpiderDropsBadPayloads(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/city", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":{}}`)
	})
	mux.HandleFunc("/product", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"slug":"ok"},{"slug":"broken"},{"slug":"listish"}],"meta":{"has_more_pages":false}}`)
	})
	mux.HandleFunc("/product/", func(w http.ResponseWriter, r *http.Request) {
		switch path.Base(r.URL.Path) {
		case "broken":
			fmt.Fprint(w, `this is not json`)
		case "listish":
			fmt.Fprint(w, `{"results":[1,2,3]}`)
		default:
			fmt.Fprint(w, `{"results":{"name":"Ок","price":10}}`)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out := &memorySink{}
	spider := newTestSpider(t, testConfig(t, srv.URL), out)
	require.NoError(t, spider.Run(context.Background()))

	items := out.Items()
	require.Len(t, items, 1, "bad detail payloads drop only themselves")
	require.Equal(t, "Ок", items[0].Title)
}

func TestSpiderRetriesTransientListingFailure(t *testing.T) {
	var listingCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/city", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":{}}`)
	})
	mux.HandleFunc("/product", func(w http.ResponseWriter, r *http.Request) {
		if listingCalls.Add(1) == 1 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"results":[{"slug":"back-online"}],"meta":{"has_more_pages":false}}`)
	})
	mux.HandleFunc("/product/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":{"name":"Снова в строю","price":1}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out := &memorySink{}
	spider := newTestSpider(t, testConfig(t, srv.URL), out)
	require.NoError(t, spider.Run(context.Background()))

	require.Equal(t, int64(2), listingCalls.Load())
	require.Len(t, out.Items(), 1)
}
