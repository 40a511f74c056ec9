// Package resolver implements the per-country RegistryResolver: turning a
// validated taxpayer ID into a canonical company name, phone, and email via
// each national registry's public-facing page or API.
package resolver

import (
	"context"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/agladsoft/unzipping-ingestor/internal/cache"
	"github.com/agladsoft/unzipping-ingestor/internal/registry"
)

// Identity is what a resolver returns for a validated ID.
type Identity struct {
	CompanyName string
	Phone       string
	Email       string
}

// Resolver looks up a validated taxpayer ID against one country's registry.
type Resolver interface {
	Country() registry.Country
	Resolve(ctx context.Context, id string) (Identity, error)
}

// ProxyPool hands out proxy URLs round-robin. A nil or empty pool means
// "dial directly" (no proxy configured).
type ProxyPool struct {
	proxies []string
	next    atomic.Uint64
}

// NewProxyPool builds a pool from a comma-free list of proxy URLs.
func NewProxyPool(proxies []string) *ProxyPool {
	return &ProxyPool{proxies: proxies}
}

// Next returns the next proxy URL in round-robin order, or "" if the pool is
// empty.
func (p *ProxyPool) Next() string {
	if p == nil || len(p.proxies) == 0 {
		return ""
	}
	i := p.next.Add(1) - 1
	return p.proxies[i%uint64(len(p.proxies))]
}

// NewHTTPClient builds an http.Client bound to timeout. When pool holds
// proxies, each request goes through the next proxy in round-robin order;
// a proxy URL that does not parse is skipped and that request dials directly.
func NewHTTPClient(timeout time.Duration, pool *ProxyPool) *http.Client {
	client := &http.Client{Timeout: timeout}
	if pool != nil && len(pool.proxies) > 0 {
		client.Transport = &http.Transport{Proxy: func(*http.Request) (*url.URL, error) {
			proxyURL, err := url.Parse(pool.Next())
			if err != nil {
				return nil, nil
			}
			return proxyURL, nil
		}}
	}
	return client
}

// CachedResolve consults cache before calling fetch, and stores fetch's
// result on a successful miss. It is the shared miss/hit plumbing every
// country resolver wraps around its own HTML/JSON extraction.
func CachedResolve(c *cache.Cache, id string, country registry.Country, fetch func() (Identity, error)) (Identity, error) {
	if entry, ok := c.LookupTaxpayer(id); ok {
		return Identity{CompanyName: entry.CompanyName, Phone: entry.Phone, Email: entry.Email}, nil
	}

	ident, err := fetch()
	if err != nil {
		return Identity{}, err
	}

	_ = c.StoreTaxpayer(id, cache.Identity{
		CompanyName: ident.CompanyName,
		Phone:       ident.Phone,
		Email:       ident.Email,
		Country:     string(country),
	})
	return ident, nil
}
