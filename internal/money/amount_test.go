package money

import (
	"testing"
)

func TestFromMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		decimals int
		want     string
		wantErr  bool
	}{
		{
			name:     "one ether",
			value:    "1000000000000000000",
			decimals: 18,
			want:     "1",
		},
		{
			name:     "fractional",
			value:    "1500000000000000000",
			decimals: 18,
			want:     "1.5",
		},
		{
			name:     "zero decimals",
			value:    "42",
			decimals: 0,
			want:     "42",
		},
		{
			name:     "max decimals",
			value:    "1",
			decimals: 36,
			want:     "0.000000000000000000000000000000000001",
		},
		{
			name:     "large value exceeds float64 precision",
			value:    "123456789012345678901234567890",
			decimals: 18,
			want:     "123456789012.34567890123456789",
		},
		{
			name:     "zero",
			value:    "0",
			decimals: 18,
			want:     "0",
		},
		{
			name:     "decimals out of range",
			value:    "1",
			decimals: 37,
			wantErr:  true,
		},
		{
			name:     "negative decimals",
			value:    "1",
			decimals: -1,
			wantErr:  true,
		},
		{
			name:     "not an integer",
			value:    "1.5",
			decimals: 18,
			wantErr:  true,
		},
		{
			name:     "negative value",
			value:    "-100",
			decimals: 18,
			wantErr:  true,
		},
		{
			name:     "empty string",
			value:    "",
			decimals: 18,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromMinorUnits(tt.value, tt.decimals)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got.String(), tt.want)
			}
		})
	}
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"at least one unit uses 3 places", "1.23456", "1.235"},
		{"exactly one unit", "1", "1.000"},
		{"below one unit uses 4 places", "0.12345", "0.1235"},
		{"tiny value", "0.00001", "0.0000"},
		{"zero", "0", "0.0000"},
		{"large value", "1234.5", "1234.500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := MustFromString(tt.input)
			if got := a.Display(); got != tt.want {
				t.Errorf("Display() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDivBy(t *testing.T) {
	a := MustFromString("0.06")

	per, err := a.DivBy(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if per.String() != "0.02" {
		t.Errorf("got %s, want 0.02", per.String())
	}

	if _, err := a.DivBy(0); err == nil {
		t.Error("expected error for zero quantity")
	}
	if _, err := a.DivBy(-1); err == nil {
		t.Error("expected error for negative quantity")
	}
}

func TestMinorUnits(t *testing.T) {
	a := MustFromString("1.5")
	got, err := a.MinorUnits(18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "1500000000000000000" {
		t.Errorf("got %s, want 1500000000000000000", got.String())
	}
}

func TestRoundTripIdempotence(t *testing.T) {
	a, err := FromMinorUnits("987654321000000000", 18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := FromMinorUnits("987654321000000000", 18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.Equal(b) {
		t.Error("normalizing the same input twice should yield identical amounts")
	}
	if a.String() != b.String() {
		t.Errorf("string forms differ: %s vs %s", a.String(), b.String())
	}
}

func TestMarshalJSON(t *testing.T) {
	a := MustFromString("12345678901234567890.1")
	data, err := a.MarshalJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `"12345678901234567890.1"` {
		t.Errorf("got %s", data)
	}

	var back Amount
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !back.Equal(a) {
		t.Error("JSON round trip changed the value")
	}
}
