package orchestrator

import (
	"context"
	"regexp"

	"github.com/agladsoft/unzipping-ingestor/internal/cache"
	"github.com/agladsoft/unzipping-ingestor/internal/catalog"
	"github.com/agladsoft/unzipping-ingestor/internal/registry"
	"github.com/agladsoft/unzipping-ingestor/internal/resolver"
	"github.com/agladsoft/unzipping-ingestor/internal/search"
)

var digitRun = regexp.MustCompile(`\d+`)

// Enricher resolves a party block's free text to a canonical identity,
// populating <role>_taxpayer_id, <role>_unified, <role>_phone_number and
// <role>_email on the header.
type Enricher struct {
	resolvers map[registry.Country]resolver.Resolver
	search    *search.Resolver
	cache     *cache.Cache
}

// NewEnricher builds an Enricher from the four country resolvers keyed by
// the country they serve.
func NewEnricher(resolvers map[registry.Country]resolver.Resolver, searchResolver *search.Resolver, c *cache.Cache) *Enricher {
	return &Enricher{resolvers: resolvers, search: searchResolver, cache: c}
}

// EnrichHeader mutates header in place for every populated party role,
// using workbookText (the flattened sheet contents) to score search-engine
// candidates against "does the name actually appear in this workbook".
func (e *Enricher) EnrichHeader(ctx context.Context, header map[string]string, workbookText string) {
	for _, role := range []catalog.Role{
		catalog.RoleSeller, catalog.RoleSellerPriority,
		catalog.RoleBuyer, catalog.RoleBuyerPriority,
	} {
		block, ok := header[string(role)]
		if !ok || block == "" {
			continue
		}
		e.enrichParty(ctx, header, string(role), block, workbookText)
	}
}

func (e *Enricher) enrichParty(ctx context.Context, header map[string]string, role, block, workbookText string) {
	id, country, ok := e.findValidatedID(block)
	if !ok {
		result, err := e.search.Resolve(ctx, block, workbookText)
		if err != nil || result.TaxpayerID == "" {
			return
		}
		id, country = result.TaxpayerID, result.Country
	}

	res, ok := e.resolvers[country]
	if !ok {
		return
	}
	ident, err := res.Resolve(ctx, id)
	if err != nil {
		return
	}

	header[role+"_taxpayer_id"] = id
	if ident.CompanyName != "" {
		header[role+"_unified"] = ident.CompanyName
	}
	if ident.Phone != "" {
		header[role+"_phone_number"] = ident.Phone
	}
	if ident.Email != "" {
		header[role+"_email"] = ident.Email
	}
}

// findValidatedID extracts every digit run in block and returns the first
// one that validates under any country's RegistryValidator.
func (e *Enricher) findValidatedID(block string) (string, registry.Country, bool) {
	for _, candidate := range digitRun.FindAllString(block, -1) {
		if v := registry.FirstValid(candidate); v != nil {
			return candidate, v.Country(), true
		}
	}
	return "", "", false
}
