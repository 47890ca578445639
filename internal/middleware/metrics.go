package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ImagesGenerated counts generated diary images by outcome.
	ImagesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shapediary_images_generated_total",
		Help: "Total number of image generation attempts by outcome",
	}, []string{"outcome"})

	// SentimentBuckets counts scored entries by sentiment bucket.
	SentimentBuckets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shapediary_sentiment_bucket_total",
		Help: "Total number of scored diary entries by sentiment bucket",
	}, []string{"bucket"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shapediary_redis_error_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})
)

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the request-level Prometheus middleware handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
