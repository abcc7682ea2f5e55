package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_http_requests_total",
		Help: "HTTP requests served, by method, route and status.",
	}, []string{"method", "route", "status"})

	ImportBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_import_batches_total",
		Help: "Import batches committed.",
	})

	ImportUnits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_import_units_total",
		Help: "Units accepted across committed import batches.",
	})

	DeletedUnits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_deleted_units_total",
		Help: "Units removed by delete requests, descendants included.",
	})
)

// Middleware counts every request against its matched route. Unmatched
// requests are labeled by raw path to keep 404 noise visible.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		RequestsTotal.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}
