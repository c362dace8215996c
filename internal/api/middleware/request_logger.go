package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/yourextrem/eventdao/internal/pkg/logger"
)

// RequestLogger はリクエストの構造化ログを出力するミドルウェア
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()
			res := c.Response()

			err := next(c)
			if err != nil {
				// ステータスを確定させてからログに出す
				c.Error(err)
			}

			fields := []zap.Field{
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				zap.String("method", req.Method),
				zap.String("route", c.Path()),
				zap.String("path", req.URL.Path),
				zap.String("query", req.URL.RawQuery),
				zap.Int("status", res.Status),
				zap.Int64("size", res.Size),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			}
			if caller := req.Header.Get(HeaderUserID); caller != "" {
				fields = append(fields, zap.String("caller", caller))
			}

			switch {
			case err != nil && res.Status >= 500:
				fields = append(fields, zap.Error(err))
				logger.Error("request failed", fields...)
			case res.Status >= 500:
				logger.Error("server error", fields...)
			case res.Status >= 400:
				if err != nil {
					fields = append(fields, zap.Error(err))
				}
				logger.Warn("client error", fields...)
			default:
				logger.Info("request completed", fields...)
			}

			return nil
		}
	}
}

// RequestIDMiddleware はリクエストIDを引き継ぐか新規に発行する
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)
			return next(c)
		}
	}
}
