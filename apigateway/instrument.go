package gateway

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Instrumentation counts and times every request going through the engine.
func Instrumentation() gin.HandlerFunc {
	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timerd",
		Subsystem: "request",
		Name:      "requests_count",
		Help:      "Number of requests per each endpoint",
	}, []string{"code", "method", "handler", "host", "url"})

	resTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "timerd",
		Subsystem: "response",
		Name:      "response_time_hist",
		Help:      "timerd response duration",
	})

	resSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "timerd",
		Subsystem: "response",
		Name:      "size_histogram",
		Help:      "timerd response size",
	})

	reqSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "timerd",
		Subsystem: "request",
		Name:      "size_hist",
		Help:      "Request size instrumenter",
	})

	colls := []prometheus.Collector{counterVec, resTime, resSize, reqSize}
	for _, v := range colls {
		if err := prometheus.Register(v); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			panic(err)
		}
	}
	return func(c *gin.Context) {

		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := float64(time.Since(start)) * 1e-6 // to millisecond

		rSize := c.Writer.Size()
		rqSize := c.Request.ContentLength

		status := strconv.Itoa(c.Writer.Status())
		counterVec.WithLabelValues(status, c.Request.Method, c.HandlerName(), c.Request.Host, c.Request.URL.Path).Inc()
		resTime.Observe(duration)
		resSize.Observe(float64(rSize))
		reqSize.Observe(float64(rqSize))
	}
}
