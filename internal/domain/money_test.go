package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "1000.00", want: "1000.00"},
		{input: " 12.5 ", want: "12.50"},
		{input: "7", want: "7.00"},
		{input: "-3.10", want: "-3.10"},
		{input: "99999999.99", want: "99999999.99"},
		{input: "100000000.00", wantErr: true},
		{input: "1.005", wantErr: true},
		{input: "", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "NaN", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMoney(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if FormatMoney(got) != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, FormatMoney(got))
			}
		})
	}
}

func TestValidateAmount(t *testing.T) {
	if _, err := ValidateAmount(decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero must be rejected, got %v", err)
	}

	got, err := ValidateAmount(decimal.RequireFromString("0.01"))
	if err != nil {
		t.Fatalf("one cent must be accepted, got %v", err)
	}

	if !got.Equal(decimal.RequireFromString("0.01")) {
		t.Fatalf("unexpected normalized amount %s", got)
	}
}

func TestValidateBalance(t *testing.T) {
	if _, err := ValidateBalance(decimal.NewFromInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative balance must be rejected, got %v", err)
	}

	if _, err := ValidateBalance(decimal.Zero); err != nil {
		t.Fatalf("zero balance must be accepted, got %v", err)
	}
}

func TestEqualRepresentationsCompareExactly(t *testing.T) {
	a, _ := ParseMoney("500.00")
	b, _ := ParseMoney("500")

	if !a.Equal(b) || a.Sub(b).Sign() != 0 {
		t.Fatalf("expected %s and %s to be exactly equal", a, b)
	}
}
