package normalize

import "testing"

func TestTight(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"spaces and colon", "Seller : ", "SELLER"},
		{"fullwidth colon", "Продавец：", "ПРОДАВЕЦ"},
		{"mixed case", "Country of Origin", "COUNTRYOFORIGIN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tight(tt.in); got != tt.want {
				t.Errorf("Tight(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoose(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"han stripped", "地址 Moscow", "Moscow"},
		{"newline folded", "line1\nline2", "line1 line2"},
		{"collapses spaces", "a   b   c", "a b c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Loose(tt.in); got != tt.want {
				t.Errorf("Loose(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"empty", "", false},
		{"plain int", "42", true},
		{"grouped thousands", "1 234", true},
		{"not numeric", "abc", false},
		{"float", "3.14", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNumeric(tt.in); got != tt.want {
				t.Errorf("IsNumeric(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDigits(t *testing.T) {
	got := Digits("INN 7707083893, phone +7 495 1234567")
	want := []string{"7707083893", "7", "495", "1234567"}
	if len(got) != len(want) {
		t.Fatalf("Digits() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Digits()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
