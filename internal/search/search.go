// Package search implements SearchEngineResolver, the fallback path used
// when a party block carries no digit sequence that validates under any
// registry's checksum. It queries an XML-river style search endpoint, mines
// every candidate digit run out of the results, and scores candidates by
// whether the title of the search result they came from appears in the
// source workbook and, after that, by how often they recur.
package search

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/agladsoft/unzipping-ingestor/internal/cache"
	"github.com/agladsoft/unzipping-ingestor/internal/registry"
)

var cleanerPattern = regexp.MustCompile(`[<>«»'"\.,!@#$%^&*()\[\]{};?|~=_+]`)

// CleanQuery strips punctuation noise and collapses whitespace, matching the
// upstream search engine's tolerance for plain free text.
func CleanQuery(s string) string {
	cleaned := cleanerPattern.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(cleaned), " ")
}

var digitRun = regexp.MustCompile(`\d+`)

// Result is what a successful search resolves to.
type Result struct {
	TaxpayerID       string
	Country          registry.Country
	IsFoundInInvoice bool
}

// ErrQuotaExhausted is returned when the search endpoint reports error code
// 200 (capacity exhausted for the billing period). The caller should abort
// enrichment of the current party block but let the rest of the workbook
// complete.
var ErrQuotaExhausted = errors.New("search: quota exhausted")

// ErrNoResults is returned for a clean "no matches" response (code 15). It
// is not logged as an error; callers treat it as a plain miss.
var ErrNoResults = errors.New("search: no results")

// Resolver queries the XML-river search endpoint.
type Resolver struct {
	endpoint string // fmt.Sprintf template taking user, key, query
	user     string
	key      string
	cache    *cache.Cache
	client   *http.Client
}

// New builds a Resolver. If user or key is empty, a Resolve call that misses
// the cache returns ErrNoResults without making a network call (disabled).
func New(endpoint, user, key string, c *cache.Cache, timeout time.Duration) *Resolver {
	return &Resolver{
		endpoint: endpoint,
		user:     user,
		key:      key,
		cache:    c,
		client:   &http.Client{Timeout: timeout},
	}
}

func (r *Resolver) Enabled() bool { return r.user != "" && r.key != "" }

// Resolve looks up query, preferring a candidate whose name appears in
// workbookText over one that merely recurs more often.
func (r *Resolver) Resolve(ctx context.Context, query, workbookText string) (Result, error) {
	cleaned := CleanQuery(query)

	if cached, ok := r.cache.LookupSearch(cleaned); ok {
		found := workbookText != "" && cached.CompanyName != "" && strings.Contains(workbookText, cached.CompanyName)
		return Result{TaxpayerID: cached.TaxpayerID, Country: registry.Country(cached.Country), IsFoundInInvoice: found}, nil
	}

	if !r.Enabled() {
		return Result{}, ErrNoResults
	}

	docs, err := r.queryWithRetry(ctx, cleaned+" ИНН", 3)
	if err != nil {
		return Result{}, err
	}

	counts := map[string]int{}
	countryOf := map[string]registry.Country{}
	nameOf := map[string]string{}

	for _, doc := range docs {
		for _, text := range []string{doc.Title, doc.Passage} {
			for _, candidate := range digitRun.FindAllString(text, -1) {
				v := registry.FirstValid(candidate)
				if v == nil {
					continue
				}
				counts[candidate]++
				countryOf[candidate] = v.Country()
				if nameOf[candidate] == "" {
					nameOf[candidate] = doc.Title
				}
			}
		}
	}

	best, bestCount, bestFound := "", -1, false
	for candidate, count := range counts {
		found := workbookText != "" && nameOf[candidate] != "" && strings.Contains(workbookText, nameOf[candidate])
		if (found && !bestFound) || (found == bestFound && count > bestCount) {
			best, bestCount, bestFound = candidate, count, found
		}
	}
	if best == "" {
		_ = r.cache.StoreSearch(cleaned, cache.SearchResult{})
		return Result{}, ErrNoResults
	}

	result := Result{TaxpayerID: best, Country: countryOf[best], IsFoundInInvoice: bestFound}
	_ = r.cache.StoreSearch(cleaned, cache.SearchResult{
		TaxpayerID:  best,
		CompanyName: nameOf[best],
		Country:     string(countryOf[best]),
	})
	return result, nil
}

type xmlDoc struct {
	Title   string `xml:"title"`
	Passage string `xml:"passages>passage"`
}

func (r *Resolver) queryWithRetry(ctx context.Context, query string, attempts int) ([]xmlDoc, error) {
	if attempts <= 0 {
		return nil, nil
	}

	url := fmt.Sprintf(r.endpoint, r.user, r.key, query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if attempts > 1 {
			select {
			case <-time.After(60 * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return r.queryWithRetry(ctx, query, attempts-1)
		}
		return nil, fmt.Errorf("search: %w", err)
	}
	defer resp.Body.Close()

	docs, err := parseXMLRiverResponse(resp.Body)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

type xmlResponseError struct {
	Code int    `xml:"code,attr"`
	Text string `xml:",chardata"`
}

type xmlResponseBody struct {
	Error *xmlResponseError `xml:"error"`
	Docs  []xmlDoc          `xml:"results>grouping>group>doc"`
}

type xmlRiverEnvelope struct {
	XMLName  xml.Name        `xml:"yandexsearch"`
	Response xmlResponseBody `xml:"response"`
}

func parseXMLRiverResponse(body io.Reader) ([]xmlDoc, error) {
	var envelope xmlRiverEnvelope
	decoder := xml.NewDecoder(body)
	if err := decoder.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("search: parse xml: %w", err)
	}

	if envelope.Response.Error != nil {
		switch envelope.Response.Error.Code {
		case 200:
			return nil, ErrQuotaExhausted
		case 110, 111:
			return nil, ErrQuotaExhausted
		case 15:
			return nil, ErrNoResults
		default:
			return nil, fmt.Errorf("search: upstream error code %d: %s", envelope.Response.Error.Code, envelope.Response.Error.Text)
		}
	}

	return envelope.Response.Docs, nil
}
