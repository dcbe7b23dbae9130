package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"brewspot/config"
	"brewspot/metrics"
)

// RequestLoggingMiddleware 는 요청 진입부터 응답까지 걸린 시간을 로깅하고 지표로 남긴다.
func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		method := c.Request.Method
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		elapsed := time.Since(start)

		// 라벨 카디널리티를 막기 위해 라우트 패턴을 사용한다.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		metrics.APIRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())

		config.Logger.Infof(
			"api_request method=%s path=%s status=%d duration_ms=%d",
			method,
			path,
			status,
			elapsed.Milliseconds(),
		)
	}
}
