// Package cache implements IdentityCache, a sqlite-backed key-value store
// for resolved taxpayer identities and free-text search results. It is
// shared by every resolver in internal/resolver and internal/search so a
// company is looked up on the network at most once.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// Identity is the triple stored against either a taxpayer ID or a cleaned
// free-text query.
type Identity struct {
	CompanyName string
	Phone       string
	Email       string
	Country     string
}

// Stats are summary counters exposed by the AdminServer's /cache/stats route.
type Stats struct {
	TaxpayerHits   int64
	TaxpayerMisses int64
	SearchHits     int64
	SearchMisses   int64
}

// Cache is the persistent IdentityCache. A single *sql.DB with
// SetMaxOpenConns(1) serializes writers; an in-process mutex additionally
// guards each lookup and upsert below together with the hit/miss counters.
// A lookup followed by a store is two separately locked calls.
type Cache struct {
	db *sql.DB
	mu sync.Mutex

	stats Stats
}

// Open opens (or creates) the sqlite database at path. An empty path uses
// ":memory:", which is convenient for tests.
func Open(path string) (*Cache, error) {
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("cache: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS cache_taxpayer_id (
		taxpayer_id  TEXT PRIMARY KEY,
		company_name TEXT NOT NULL DEFAULT '',
		phone        TEXT NOT NULL DEFAULT '',
		email        TEXT NOT NULL DEFAULT '',
		country      TEXT NOT NULL DEFAULT ''
	)`)
	if err != nil {
		return fmt.Errorf("cache: create cache_taxpayer_id: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS search_engine (
		query        TEXT PRIMARY KEY,
		taxpayer_id  TEXT NOT NULL DEFAULT '',
		company_name TEXT NOT NULL DEFAULT '',
		country      TEXT NOT NULL DEFAULT ''
	)`)
	if err != nil {
		return fmt.Errorf("cache: create search_engine: %w", err)
	}
	return nil
}

// LookupTaxpayer returns the cached identity for a taxpayer ID. ok is false
// on a miss.
func (c *Cache) LookupTaxpayer(id string) (Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ident Identity
	err := c.db.QueryRow(
		`SELECT company_name, phone, email, country FROM cache_taxpayer_id WHERE taxpayer_id = ?`,
		id,
	).Scan(&ident.CompanyName, &ident.Phone, &ident.Email, &ident.Country)
	if err != nil {
		c.stats.TaxpayerMisses++
		return Identity{}, false
	}
	c.stats.TaxpayerHits++
	return ident, true
}

// StoreTaxpayer upserts the identity resolved for a taxpayer ID.
func (c *Cache) StoreTaxpayer(id string, ident Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		`INSERT INTO cache_taxpayer_id (taxpayer_id, company_name, phone, email, country)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(taxpayer_id) DO UPDATE SET
			company_name = excluded.company_name,
			phone        = excluded.phone,
			email        = excluded.email,
			country      = excluded.country`,
		id, ident.CompanyName, ident.Phone, ident.Email, ident.Country,
	)
	if err != nil {
		return fmt.Errorf("cache: store taxpayer: %w", err)
	}
	return nil
}

// SearchResult is what the search-engine table stores: the taxpayer ID the
// query resolved to, plus enough context to rebuild the identity.
type SearchResult struct {
	TaxpayerID  string
	CompanyName string
	Country     string
}

// LookupSearch returns the cached search result for a cleaned query.
func (c *Cache) LookupSearch(query string) (SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res SearchResult
	err := c.db.QueryRow(
		`SELECT taxpayer_id, company_name, country FROM search_engine WHERE query = ?`,
		query,
	).Scan(&res.TaxpayerID, &res.CompanyName, &res.Country)
	if err != nil {
		c.stats.SearchMisses++
		return SearchResult{}, false
	}
	c.stats.SearchHits++
	return res, true
}

// StoreSearch upserts the result resolved for a cleaned query.
func (c *Cache) StoreSearch(query string, res SearchResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		`INSERT INTO search_engine (query, taxpayer_id, company_name, country)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(query) DO UPDATE SET
			taxpayer_id  = excluded.taxpayer_id,
			company_name = excluded.company_name,
			country      = excluded.country`,
		query, res.TaxpayerID, res.CompanyName, res.Country,
	)
	if err != nil {
		return fmt.Errorf("cache: store search: %w", err)
	}
	return nil
}

// Stats returns a snapshot of the hit/miss counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
