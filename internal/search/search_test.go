package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agladsoft/unzipping-ingestor/internal/cache"
)

func TestCleanQuery(t *testing.T) {
	got := CleanQuery(`Some "Co.", Ltd! (branch) <test>`)
	want := "Some Co Ltd branch test"
	if got != want {
		t.Errorf("CleanQuery() = %q, want %q", got, want)
	}
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.Open("")
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

const xmlFixture = `<?xml version="1.0" encoding="UTF-8"?>
<yandexsearch>
  <response>
    <results>
      <grouping>
        <group>
          <doc><title>OOO Romashka INN 7707083893</title><passages><passage>7707083893 found twice</passage></passages></doc>
          <doc><title>Other result</title><passages><passage>no digits here</passage></passages></doc>
        </group>
      </grouping>
    </results>
  </response>
</yandexsearch>`

func TestResolveCountsCandidateAcrossDocs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(xmlFixture))
	}))
	defer srv.Close()

	c := newTestCache(t)
	r := New(srv.URL+"?user=%s&key=%s&query=%s", "u", "k", c, 5*time.Second)

	res, err := r.Resolve(context.Background(), "Some Co, no digits at all", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.TaxpayerID != "7707083893" {
		t.Errorf("TaxpayerID = %q, want 7707083893", res.TaxpayerID)
	}
}

func TestResolveDisabledWithoutCredentials(t *testing.T) {
	c := newTestCache(t)
	r := New("http://unused/%s/%s/%s", "", "", c, 5*time.Second)

	_, err := r.Resolve(context.Background(), "anything", "")
	if err != ErrNoResults {
		t.Errorf("Resolve() error = %v, want ErrNoResults", err)
	}
}

func TestResolveQuotaExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<yandexsearch><response><error code="200">quota exceeded</error></response></yandexsearch>`))
	}))
	defer srv.Close()

	c := newTestCache(t)
	r := New(srv.URL+"?u=%s&k=%s&q=%s", "u", "k", c, 5*time.Second)

	_, err := r.Resolve(context.Background(), "query", "")
	if err != ErrQuotaExhausted {
		t.Errorf("Resolve() error = %v, want ErrQuotaExhausted", err)
	}
}
