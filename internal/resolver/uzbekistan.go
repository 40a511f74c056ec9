package resolver

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/agladsoft/unzipping-ingestor/internal/cache"
	"github.com/agladsoft/unzipping-ingestor/internal/registry"
	"github.com/agladsoft/unzipping-ingestor/internal/translate"
)

// UzbekistanResolver searches the registry's search page, follows the first
// organization card, and translates the extracted name to Russian.
type UzbekistanResolver struct {
	searchURLFormat string
	cache           *cache.Cache
	client          *http.Client
	translator      translate.Translator
}

func NewUzbekistanResolver(searchURLFormat string, c *cache.Cache, pool *ProxyPool, timeout time.Duration, translator translate.Translator) *UzbekistanResolver {
	if translator == nil {
		translator = translate.NewNoop()
	}
	return &UzbekistanResolver{
		searchURLFormat: searchURLFormat,
		cache:           c,
		client:          NewHTTPClient(timeout, pool),
		translator:      translator,
	}
}

func (r *UzbekistanResolver) Country() registry.Country { return registry.Uzbekistan }

func (r *UzbekistanResolver) Resolve(ctx context.Context, id string) (Identity, error) {
	return CachedResolve(r.cache, id, registry.Uzbekistan, func() (Identity, error) {
		cardURL, err := r.searchFirstCard(ctx, id)
		if err != nil {
			return Identity{}, err
		}

		ident, err := r.fetchCard(ctx, cardURL)
		if err != nil {
			return Identity{}, err
		}

		if translated, terr := r.translator.Translate(ctx, ident.CompanyName); terr == nil {
			ident.CompanyName = translated
		}
		return ident, nil
	})
}

func (r *UzbekistanResolver) searchFirstCard(ctx context.Context, id string) (string, error) {
	doc, err := r.getDocument(ctx, fmt.Sprintf(r.searchURLFormat, id))
	if err != nil {
		return "", err
	}
	href, ok := doc.Find("a.org-card").First().Attr("href")
	if !ok || href == "" {
		return "", fmt.Errorf("resolver: uzbekistan: no organization card for %s", id)
	}
	return href, nil
}

func (r *UzbekistanResolver) fetchCard(ctx context.Context, cardURL string) (Identity, error) {
	doc, err := r.getDocument(ctx, cardURL)
	if err != nil {
		return Identity{}, err
	}

	name := strings.TrimSpace(doc.Find("h1.h1-seo").First().Text())
	phone := strings.TrimSpace(doc.Find("a.phone-link").First().Text())

	var email string
	if enc, ok := doc.Find("a.__cf_email__").First().Attr("data-cfemail"); ok {
		email = decodeCloudflareEmail(enc)
	}

	return Identity{CompanyName: name, Phone: phone, Email: email}, nil
}

func (r *UzbekistanResolver) getDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("resolver: uzbekistan: build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolver: uzbekistan: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("resolver: uzbekistan: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("resolver: uzbekistan: parse html: %w", err)
	}
	return doc, nil
}

// decodeCloudflareEmail reverses the data-cfemail obfuscation: the first
// byte is an XOR key applied to every following byte.
func decodeCloudflareEmail(hexEncoded string) string {
	raw, err := hex.DecodeString(hexEncoded)
	if err != nil || len(raw) < 2 {
		return ""
	}
	key := raw[0]
	decoded := make([]byte, 0, len(raw)-1)
	for _, b := range raw[1:] {
		decoded = append(decoded, b^key)
	}
	return string(decoded)
}
