// Package registry implements the per-country taxpayer-ID checksum
// validators. Each country is a tagged variant exposing a Validator
// capability; resolvers that turn a validated ID into a company name live in
// internal/resolver and depend on this package for the Country enum.
package registry

// Country is the tagged variant over the four supported national registries.
type Country string

const (
	Russia     Country = "russia"
	Kazakhstan Country = "kazakhstan"
	Belarus    Country = "belarus"
	Uzbekistan Country = "uzbekistan"
)

// Validator validates a candidate taxpayer ID against one country's
// checksum/format rules.
type Validator interface {
	Country() Country
	Validate(id string) bool
}

// Validators returns the four country validators in a fixed order, mirroring
// the orchestrator's fixed short-circuit search order.
func Validators() []Validator {
	return []Validator{
		RussiaValidator{},
		KazakhstanValidator{},
		BelarusValidator{},
		UzbekistanValidator{},
	}
}

// FirstValid returns the first validator (in Validators order) that accepts
// id, or nil if none do.
func FirstValid(id string) Validator {
	for _, v := range Validators() {
		if v.Validate(id) {
			return v
		}
	}
	return nil
}
