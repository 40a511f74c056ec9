package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agladsoft/unzipping-ingestor/internal/cache"
)

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.Open("")
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestHTMLResolverExtractsNamePhoneEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<h1>PJSC Sberbank</h1>
			<a href="tel:+74955005550">call</a>
			<a href="mailto:info@sberbank.ru">mail</a>
		</body></html>`))
	}))
	defer srv.Close()

	c := newTestCache(t)
	res := NewRussiaResolver(srv.URL+"/company/%s", c, nil, 5*time.Second)

	ident, err := res.Resolve(context.Background(), "7707083893")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ident.CompanyName != "PJSC Sberbank" {
		t.Errorf("CompanyName = %q, want PJSC Sberbank", ident.CompanyName)
	}
	if ident.Phone != "+74955005550" {
		t.Errorf("Phone = %q, want +74955005550", ident.Phone)
	}
	if ident.Email != "info@sberbank.ru" {
		t.Errorf("Email = %q, want info@sberbank.ru", ident.Email)
	}
}

func TestHTMLResolverCachesAfterFirstCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`<html><body><h1>Romashka LLC</h1></body></html>`))
	}))
	defer srv.Close()

	c := newTestCache(t)
	res := NewBelarusResolver(srv.URL+"/company/%s", c, nil, 5*time.Second)

	for i := 0; i < 2; i++ {
		if _, err := res.Resolve(context.Background(), "123456789"); err != nil {
			t.Fatalf("Resolve[%d]: %v", i, err)
		}
	}
	if calls != 1 {
		t.Errorf("HTTP calls = %d, want 1 (second Resolve should hit the cache)", calls)
	}
}

func TestProxyPoolRoundRobin(t *testing.T) {
	pool := NewProxyPool([]string{"http://a", "http://b", "http://c"})
	got := []string{pool.Next(), pool.Next(), pool.Next(), pool.Next()}
	want := []string{"http://a", "http://b", "http://c", "http://a"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Next()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDecodeCloudflareEmail(t *testing.T) {
	// "a@b.uz" XOR key 0x10: key byte then each char XORed.
	key := byte(0x10)
	plain := "a@b.uz"
	encoded := []byte{key}
	for i := 0; i < len(plain); i++ {
		encoded = append(encoded, plain[i]^key)
	}
	hexEncoded := ""
	for _, b := range encoded {
		hexEncoded += hexByte(b)
	}
	if got := decodeCloudflareEmail(hexEncoded); got != plain {
		t.Errorf("decodeCloudflareEmail() = %q, want %q", got, plain)
	}
}

func hexByte(b byte) string {
	const hexDigits = "0123456789abcdef"
	return string([]byte{hexDigits[b>>4], hexDigits[b&0xF]})
}
