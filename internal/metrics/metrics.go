// Package metrics содержит Prometheus-метрики сервиса: HTTP и оформление заказов.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	OrdersPlacedTotal prometheus.Counter
	OrdersFailedTotal *prometheus.CounterVec
	OrderAmountTotal  prometheus.Counter
	StockUnitsSold    prometheus.Counter
}

func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		OrdersPlacedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Orders committed successfully",
		}),
		OrdersFailedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "failed_total",
			Help:      "Order placements rejected or rolled back, by reason",
		}, []string{"reason"}),
		OrderAmountTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "amount_total",
			Help:      "Sum of total_amount of committed orders",
		}),
		StockUnitsSold: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "units_decremented_total",
			Help:      "Units removed from stock by committed orders",
		}),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.OrdersPlacedTotal,
		m.OrdersFailedTotal,
		m.OrderAmountTotal,
		m.StockUnitsSold,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Методы ниже безопасны для nil: сервисы в тестах создаются без метрик.

func (m *Metrics) OrderPlaced(amount float64, units int) {
	if m == nil {
		return
	}
	m.OrdersPlacedTotal.Inc()
	m.OrderAmountTotal.Add(amount)
	m.StockUnitsSold.Add(float64(units))
}

func (m *Metrics) OrderFailed(reason string) {
	if m == nil {
		return
	}
	m.OrdersFailedTotal.WithLabelValues(reason).Inc()
}

// GinMiddleware пишет счётчик и гистограмму по шаблону маршрута (FullPath), а не по сырому URL.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
