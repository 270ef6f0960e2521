package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics содержит метрики кэша каталога.
type CacheMetrics struct {
	hits    prometheus.Counter
	misses  prometheus.Counter
	removed prometheus.Counter
	// Gauge текущего количества записей в кэше.
	entries prometheus.Gauge
}

// NewCacheMetrics создаёт метрики кэша в default-регистре.
func NewCacheMetrics() *CacheMetrics {
	return newCacheMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCacheMetricsWithRegisterer(registerer prometheus.Registerer) *CacheMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CacheMetrics{
		hits: registerCounter(registerer, prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Total number of cache hits",
		}),
		misses: registerCounter(registerer, prometheus.CounterOpts{
			Name: "catalog_cache_misses_total",
			Help: "Total number of cache misses",
		}),
		removed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "catalog_cache_removed_keys_total",
			Help: "Total number of cache keys removed by invalidation or expiry",
		}),
		entries: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "catalog_cache_entries",
			Help: "Current number of entries in the cache",
		}),
	}
}

// RecordHit увеличивает счётчик попаданий.
func (m *CacheMetrics) RecordHit() {
	m.hits.Inc()
}

// RecordMiss увеличивает счётчик промахов.
func (m *CacheMetrics) RecordMiss() {
	m.misses.Inc()
}

// RecordRemoved учитывает удалённые ключи.
func (m *CacheMetrics) RecordRemoved(count int) {
	m.removed.Add(float64(count))
}

// SetEntries выставляет текущее количество записей.
func (m *CacheMetrics) SetEntries(count int) {
	m.entries.Set(float64(count))
}

// CatalogMetrics содержит метрики каталожных запросов и мутаций.
type CatalogMetrics struct {
	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	mutations     *prometheus.CounterVec
}

// NewCatalogMetrics создаёт метрики каталога в default-регистре.
func NewCatalogMetrics() *CatalogMetrics {
	return newCatalogMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCatalogMetricsWithRegisterer(registerer prometheus.Registerer) *CatalogMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CatalogMetrics{
		queries: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "catalog_queries_total",
			Help: "Total number of catalog queries grouped by operation",
		}, []string{"op"}),
		queryDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "catalog_query_duration_seconds",
			Help:    "Duration of catalog queries in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"op"}),
		mutations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "catalog_mutations_total",
			Help: "Total number of product mutations grouped by kind",
		}, []string{"kind"}),
	}
}

// RecordQuery учитывает выполненный запрос и его длительность.
func (m *CatalogMetrics) RecordQuery(op string, duration time.Duration) {
	m.queries.WithLabelValues(op).Inc()
	m.queryDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordMutation учитывает мутацию каталога.
func (m *CatalogMetrics) RecordMutation(kind string) {
	m.mutations.WithLabelValues(kind).Inc()
}

// OrderMetrics содержит метрики жизненного цикла заказов.
type OrderMetrics struct {
	created             prometheus.Counter
	transitions         *prometheus.CounterVec
	transitionsRejected *prometheus.CounterVec
	createDuration      prometheus.Histogram
}

// NewOrderMetrics создаёт метрики заказов в default-регистре.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		created: registerCounter(registerer, prometheus.CounterOpts{
			Name: "catalog_orders_created_total",
			Help: "Total number of orders created",
		}),
		transitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "catalog_order_transitions_total",
			Help: "Total number of applied order status transitions",
		}, []string{"to"}),
		transitionsRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "catalog_order_transitions_rejected_total",
			Help: "Total number of rejected order status transitions",
		}, []string{"to"}),
		createDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "catalog_order_create_duration_seconds",
			Help:    "Duration of order creation in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordCreated учитывает созданный заказ и длительность операции.
func (m *OrderMetrics) RecordCreated(duration time.Duration) {
	m.created.Inc()
	m.createDuration.Observe(duration.Seconds())
}

// RecordTransition учитывает применённый переход статуса.
func (m *OrderMetrics) RecordTransition(to string) {
	m.transitions.WithLabelValues(to).Inc()
}

// RecordTransitionRejected учитывает отклонённый переход статуса.
func (m *OrderMetrics) RecordTransitionRejected(to string) {
	m.transitionsRejected.WithLabelValues(to).Inc()
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}
