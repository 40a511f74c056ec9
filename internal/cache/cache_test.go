package cache

import "testing"

func TestTaxpayerRoundTrip(t *testing.T) {
	c, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if _, ok := c.LookupTaxpayer("7707083893"); ok {
		t.Fatalf("LookupTaxpayer on empty cache = hit, want miss")
	}

	want := Identity{CompanyName: "Sberbank", Phone: "+7 495", Email: "a@b.ru", Country: "russia"}
	if err := c.StoreTaxpayer("7707083893", want); err != nil {
		t.Fatalf("StoreTaxpayer: %v", err)
	}

	got, ok := c.LookupTaxpayer("7707083893")
	if !ok {
		t.Fatalf("LookupTaxpayer after store = miss, want hit")
	}
	if got != want {
		t.Errorf("LookupTaxpayer = %+v, want %+v", got, want)
	}

	// Re-resolve with a different name: last writer wins.
	updated := want
	updated.CompanyName = "PJSC Sberbank"
	if err := c.StoreTaxpayer("7707083893", updated); err != nil {
		t.Fatalf("StoreTaxpayer (update): %v", err)
	}
	got2, _ := c.LookupTaxpayer("7707083893")
	if got2.CompanyName != "PJSC Sberbank" {
		t.Errorf("CompanyName after update = %q, want PJSC Sberbank", got2.CompanyName)
	}

	stats := c.Stats()
	if stats.TaxpayerHits != 2 || stats.TaxpayerMisses != 1 {
		t.Errorf("Stats = %+v, want 2 hits / 1 miss", stats)
	}
}

func TestSearchRoundTrip(t *testing.T) {
	c, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if _, ok := c.LookupSearch("romashka llc"); ok {
		t.Fatalf("LookupSearch on empty cache = hit, want miss")
	}

	want := SearchResult{TaxpayerID: "7707083893", CompanyName: "Romashka LLC", Country: "russia"}
	if err := c.StoreSearch("romashka llc", want); err != nil {
		t.Fatalf("StoreSearch: %v", err)
	}

	got, ok := c.LookupSearch("romashka llc")
	if !ok || got != want {
		t.Errorf("LookupSearch = %+v, %v, want %+v, true", got, ok, want)
	}
}
