package resolver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/agladsoft/unzipping-ingestor/internal/cache"
	"github.com/agladsoft/unzipping-ingestor/internal/registry"
)

// HTMLResolver scrapes a registry page whose company name sits in the
// primary heading and whose phone/email live in tel:/mailto: anchors. This
// covers both Russia and Belarus, which expose the same page shape.
type HTMLResolver struct {
	country   registry.Country
	urlFormat string // fmt.Sprintf template taking the taxpayer ID
	cache     *cache.Cache
	client    *http.Client

	// retryOnConnError, when true, sleeps retryDelay and retries once when
	// the request fails with "connection refused", matching the Russia resolver's documented behavior.
	// Other countries log and return a null result instead.
	retryOnConnError bool
	retryDelay       time.Duration
}

// NewRussiaResolver builds the Russia registry resolver.
func NewRussiaResolver(urlFormat string, c *cache.Cache, pool *ProxyPool, timeout time.Duration) *HTMLResolver {
	return &HTMLResolver{
		country:          registry.Russia,
		urlFormat:        urlFormat,
		cache:            c,
		client:           NewHTTPClient(timeout, pool),
		retryOnConnError: true,
		retryDelay:       30 * time.Second,
	}
}

// NewBelarusResolver builds the Belarus registry resolver.
func NewBelarusResolver(urlFormat string, c *cache.Cache, pool *ProxyPool, timeout time.Duration) *HTMLResolver {
	return &HTMLResolver{
		country:   registry.Belarus,
		urlFormat: urlFormat,
		cache:     c,
		client:    NewHTTPClient(timeout, pool),
	}
}

func (r *HTMLResolver) Country() registry.Country { return r.country }

func (r *HTMLResolver) Resolve(ctx context.Context, id string) (Identity, error) {
	return CachedResolve(r.cache, id, r.country, func() (Identity, error) {
		ident, err := r.fetch(ctx, id)
		if err != nil && r.retryOnConnError && isConnError(err) {
			select {
			case <-time.After(r.retryDelay):
			case <-ctx.Done():
				return Identity{}, ctx.Err()
			}
			ident, err = r.fetch(ctx, id)
		}
		return ident, err
	})
}

func (r *HTMLResolver) fetch(ctx context.Context, id string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(r.urlFormat, id), nil)
	if err != nil {
		return Identity{}, fmt.Errorf("resolver: %s: build request: %w", r.country, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("resolver: %s: %w", r.country, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Identity{}, fmt.Errorf("resolver: %s: status %d", r.country, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Identity{}, fmt.Errorf("resolver: %s: parse html: %w", r.country, err)
	}

	return extractIdentity(doc), nil
}

// extractIdentity pulls the company name out of the first heading and
// phone/email out of tel:/mailto: anchors, joining multiples with newlines.
func extractIdentity(doc *goquery.Document) Identity {
	name := strings.TrimSpace(doc.Find("h1").First().Text())

	var phones, emails []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		switch {
		case strings.HasPrefix(href, "tel:"):
			phones = append(phones, strings.TrimPrefix(href, "tel:"))
		case strings.HasPrefix(href, "mailto:"):
			emails = append(emails, strings.TrimPrefix(href, "mailto:"))
		}
	})

	return Identity{
		CompanyName: name,
		Phone:       strings.Join(phones, "\n"),
		Email:       strings.Join(emails, "\n"),
	}
}

func isConnError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "connection refused")
}
