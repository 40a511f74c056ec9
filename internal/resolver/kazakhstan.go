package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/agladsoft/unzipping-ingestor/internal/cache"
	"github.com/agladsoft/unzipping-ingestor/internal/registry"
)

// KazakhstanResolver hits two JSON endpoints: one for the company name, one
// for contact details.
type KazakhstanResolver struct {
	companyURLFormat  string
	contactsURLFormat string
	cache             *cache.Cache
	client            *http.Client
}

func NewKazakhstanResolver(companyURLFormat, contactsURLFormat string, c *cache.Cache, pool *ProxyPool, timeout time.Duration) *KazakhstanResolver {
	return &KazakhstanResolver{
		companyURLFormat:  companyURLFormat,
		contactsURLFormat: contactsURLFormat,
		cache:             c,
		client:            NewHTTPClient(timeout, pool),
	}
}

func (r *KazakhstanResolver) Country() registry.Country { return registry.Kazakhstan }

type kazakhstanCompanyResponse struct {
	Name string `json:"name"`
}

type kazakhstanContactsResponse struct {
	Phones []string `json:"phones"`
	Emails []string `json:"emails"`
}

func (r *KazakhstanResolver) Resolve(ctx context.Context, id string) (Identity, error) {
	return CachedResolve(r.cache, id, registry.Kazakhstan, func() (Identity, error) {
		var company kazakhstanCompanyResponse
		if err := r.getJSON(ctx, fmt.Sprintf(r.companyURLFormat, id), &company); err != nil {
			return Identity{}, err
		}

		var contacts kazakhstanContactsResponse
		if err := r.getJSON(ctx, fmt.Sprintf(r.contactsURLFormat, id), &contacts); err != nil {
			// Name resolved but contacts did not: still return the name.
			return Identity{CompanyName: company.Name}, nil
		}

		return Identity{
			CompanyName: company.Name,
			Phone:       strings.Join(contacts.Phones, "\n"),
			Email:       strings.Join(contacts.Emails, "\n"),
		}, nil
	})
}

func (r *KazakhstanResolver) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("resolver: kazakhstan: build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("resolver: kazakhstan: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("resolver: kazakhstan: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("resolver: kazakhstan: decode: %w", err)
	}
	return nil
}
