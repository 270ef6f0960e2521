package domain_test

import (
	"fmt"
	"testing"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

func TestErrorKindHelpers(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"product not found", domain.ErrProductNotFound, domain.IsNotFound, true},
		{"order not found", domain.ErrOrderNotFound, domain.IsNotFound, true},
		{"wrapped not found", fmt.Errorf("load order: %w", domain.ErrOrderNotFound), domain.IsNotFound, true},
		{"version conflict", domain.ErrVersionConflict, domain.IsVersionConflict, true},
		{"wrapped conflict", fmt.Errorf("save: %w", domain.ErrVersionConflict), domain.IsVersionConflict, true},
		{"forbidden", domain.ErrForbidden, domain.IsForbidden, true},
		{"validation", fmt.Errorf("%w: bad input", domain.ErrValidation), domain.IsValidation, true},
		{"invalid transition", domain.ErrInvalidTransition, domain.IsInvalidTransition, true},
		{"forbidden is not not-found", domain.ErrForbidden, domain.IsNotFound, false},
		{"not found is not forbidden", domain.ErrOrderNotFound, domain.IsForbidden, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.check(tc.err); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
