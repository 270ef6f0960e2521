package domain_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

func TestProductValidateInvariants(t *testing.T) {
	cases := []struct {
		name    string
		product domain.Product
		wantErr bool
	}{
		{
			name:    "valid",
			product: domain.Product{Name: "Keyboard", Price: decimal.RequireFromString("49.90"), IsActive: true},
		},
		{
			name:    "empty name",
			product: domain.Product{Name: "", Price: decimal.RequireFromString("10.00")},
			wantErr: true,
		},
		{
			name:    "name too long",
			product: domain.Product{Name: strings.Repeat("x", 201), Price: decimal.RequireFromString("10.00")},
			wantErr: true,
		},
		{
			name:    "zero price",
			product: domain.Product{Name: "Free", Price: decimal.Zero},
			wantErr: true,
		},
		{
			name:    "negative price",
			product: domain.Product{Name: "Debt", Price: decimal.RequireFromString("-1.00")},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := tc.product.ValidateInvariants()
			if tc.wantErr && len(errs) == 0 {
				t.Fatalf("expected validation errors")
			}
			if !tc.wantErr && len(errs) != 0 {
				t.Fatalf("expected no validation errors, got %v", errs)
			}
		})
	}
}

func TestParseProductSort(t *testing.T) {
	cases := map[string]domain.ProductSort{
		"id":      domain.ProductSortID,
		"name":    domain.ProductSortName,
		"Price":   domain.ProductSortPrice,
		" NAME ":  domain.ProductSortName,
		"":        domain.ProductSortID,
		"unknown": domain.ProductSortID,
	}

	for input, want := range cases {
		if got := domain.ParseProductSort(input); got != want {
			t.Fatalf("ParseProductSort(%q) = %s, want %s", input, got, want)
		}
	}
}
