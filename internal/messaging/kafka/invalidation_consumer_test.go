package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
)

type fakeCache struct {
	removedPrefixes []string
	err             error
}

func (f *fakeCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	return compute(ctx)
}

func (f *fakeCache) Remove(context.Context, string) error {
	return nil
}

func (f *fakeCache) RemoveByPrefix(_ context.Context, prefix string) error {
	if f.err != nil {
		return f.err
	}
	f.removedPrefixes = append(f.removedPrefixes, prefix)
	return nil
}

func TestInvalidationHandlerRemovesProductPrefix(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{}
	handler := NewInvalidationHandler(cache, nil)

	message := &sarama.ConsumerMessage{
		Topic: TopicProductEvents,
		Value: []byte(`{"event_type":"product.updated","product_id":7}`),
	}
	if err := handler(context.Background(), message); err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	if len(cache.removedPrefixes) != 1 || cache.removedPrefixes[0] != productCachePrefix {
		t.Fatalf("unexpected removed prefixes: %v", cache.removedPrefixes)
	}
}

func TestInvalidationHandlerPropagatesCacheError(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{err: errors.New("cache unavailable")}
	handler := NewInvalidationHandler(cache, nil)

	message := &sarama.ConsumerMessage{Topic: TopicProductEvents}
	if err := handler(context.Background(), message); err == nil {
		t.Fatal("expected error from handler")
	}
}
