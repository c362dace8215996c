package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yourextrem/eventdao/internal/pkg/metrics"
)

// unmatchedRoute は未定義ルートのラベル（パスをそのまま使うとカーディナリティが爆発する）
const unmatchedRoute = "unmatched"

// PrometheusMiddleware はHTTPメトリクスを収集するミドルウェア
func PrometheusMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}

			route := c.Path()
			if route == "" || status == http.StatusNotFound && route == "/*" {
				route = unmatchedRoute
			}

			method := c.Request().Method
			m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
