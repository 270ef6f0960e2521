package app

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

func TestNewDependencies_Memory(t *testing.T) {
	logger := log.WithField("test", "dependencies")

	deps, err := NewDependencies(context.Background(), Config{}, logger)
	if err != nil {
		t.Fatalf("NewDependencies failed: %v", err)
	}

	if deps.Products == nil {
		t.Error("Products should not be nil")
	}
	if deps.Orders == nil {
		t.Error("Orders should not be nil")
	}
	if deps.Outbox == nil {
		t.Error("Outbox should not be nil")
	}
	if deps.Cache == nil {
		t.Error("Cache should not be nil")
	}
	if deps.Authorizer == nil {
		t.Error("Authorizer should not be nil")
	}
	if deps.Logger == nil {
		t.Error("Logger should not be nil")
	}

	// Без postgres закрывать нечего.
	if err := deps.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

// gatherCounterTotal суммирует значение счётчика из общего реестра.
func gatherCounterTotal(t *testing.T, name string) float64 {
	t.Helper()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		var total float64
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
		return total
	}
	return 0
}

func TestNewDependencies_CacheReportsMetrics(t *testing.T) {
	deps, err := NewDependencies(context.Background(), Config{}, nil)
	if err != nil {
		t.Fatalf("NewDependencies failed: %v", err)
	}
	defer deps.Close()

	ctx := context.Background()
	compute := func(ctx context.Context) ([]byte, error) {
		return []byte("value"), nil
	}

	missesBefore := gatherCounterTotal(t, "catalog_cache_misses_total")
	hitsBefore := gatherCounterTotal(t, "catalog_cache_hits_total")

	if _, err := deps.Cache.GetOrSet(ctx, "metrics-key", time.Minute, compute); err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}
	if _, err := deps.Cache.GetOrSet(ctx, "metrics-key", time.Minute, compute); err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}

	if got := gatherCounterTotal(t, "catalog_cache_misses_total") - missesBefore; got != 1 {
		t.Errorf("misses delta = %v, want 1", got)
	}
	if got := gatherCounterTotal(t, "catalog_cache_hits_total") - hitsBefore; got != 1 {
		t.Errorf("hits delta = %v, want 1", got)
	}
}

func TestNewDependencies_WithNilLogger(t *testing.T) {
	deps, err := NewDependencies(context.Background(), Config{}, nil)
	if err != nil {
		t.Fatalf("NewDependencies failed: %v", err)
	}

	if deps.Logger == nil {
		t.Error("Logger should be defaulted when nil is passed")
	}
}
