package registry

import "testing"

func TestRussiaValidatorOrganization(t *testing.T) {
	r := RussiaValidator{}
	if !r.Validate("7707083893") {
		t.Errorf("Validate(7707083893) = false, want true")
	}
	if r.Validate("7707083894") {
		t.Errorf("Validate(7707083894) = true after flipping the check digit, want false")
	}
}

func TestKazakhstanValidatorSecondWeightVector(t *testing.T) {
	k := KazakhstanValidator{}
	if !k.Validate("000000000101") {
		t.Errorf("Validate(000000000101) = false, want true (w2 fallback path)")
	}
	if k.Validate("000000000100") {
		t.Errorf("Validate(000000000100) = true, want false")
	}
}

func TestBelarusValidatorRejectsAllZeros(t *testing.T) {
	b := BelarusValidator{}
	if b.Validate("000000000") {
		t.Errorf("Validate(000000000) = true, want false")
	}
}

func TestUzbekistanValidatorLeadingDigit(t *testing.T) {
	u := UzbekistanValidator{}
	if u.Validate("234567890") {
		t.Errorf("Validate(234567890) = true, want false (leading digit 2 is out of range)")
	}
	if !u.Validate("345678901") {
		t.Errorf("Validate(345678901) = false, want true")
	}
}

func TestFirstValid(t *testing.T) {
	if v := FirstValid("7707083893"); v == nil || v.Country() != Russia {
		t.Errorf("FirstValid(7707083893) = %v, want russia", v)
	}
	if v := FirstValid("not-an-id"); v != nil {
		t.Errorf("FirstValid(not-an-id) = %v, want nil", v)
	}
}
