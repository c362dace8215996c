package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// HeaderUserID は呼び出し元のIDを運ぶヘッダー
const HeaderUserID = "X-User-ID"

// SetupMiddleware は共通ミドルウェアを設定する
func SetupMiddleware(e *echo.Echo) {
	// リクエストID
	e.Use(RequestIDMiddleware())

	// 構造化リクエストログ（zap）
	e.Use(RequestLogger())

	// パニックリカバリー
	e.Use(middleware.Recover())

	// CORS
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{echo.GET, echo.HEAD, echo.POST, echo.OPTIONS},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, HeaderUserID},
		ExposeHeaders: []string{"X-Total-Count"},
	}))

	// リクエストボディの上限（説明500文字 + α で十分）
	e.Use(middleware.BodyLimit("64K"))
}
