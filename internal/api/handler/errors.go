package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/yourextrem/eventdao/internal/api/middleware"
	"github.com/yourextrem/eventdao/internal/application"
	"github.com/yourextrem/eventdao/internal/domain/address"
	"github.com/yourextrem/eventdao/internal/domain/event"
	"github.com/yourextrem/eventdao/internal/domain/registry"
	"github.com/yourextrem/eventdao/internal/domain/ticket"
)

var (
	errMissingIdentity = echo.NewHTTPError(http.StatusUnauthorized, "X-User-ID ヘッダーが必要です")
	errInvalidEventID  = echo.NewHTTPError(http.StatusBadRequest, "イベントIDの形式が不正です")
	errInvalidAddress  = echo.NewHTTPError(http.StatusBadRequest, "アドレスの形式が不正です")
	errInvalidBody     = echo.NewHTTPError(http.StatusBadRequest, "リクエストの形式が不正です")
	errInvalidOwner    = echo.NewHTTPError(http.StatusBadRequest, "所有者の形式が不正です")
)

// toHTTPError はサービスのエラーをHTTPエラーに変換する
// メッセージはドメインエラーの文言をそのまま返す
func toHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, event.ErrInvalidParameters),
		errors.Is(err, registry.ErrAuthorityRequired),
		errors.Is(err, ticket.ErrOwnerRequired),
		errors.Is(err, application.ErrIdentityRequired),
		errors.Is(err, address.ErrInvalidAddress):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ticket.ErrNotTicketOwner):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, registry.ErrRegistryNotFound),
		errors.Is(err, event.ErrEventNotFound),
		errors.Is(err, ticket.ErrTicketNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, registry.ErrAlreadyInitialized),
		errors.Is(err, registry.ErrEventIDExhausted),
		errors.Is(err, ticket.ErrDuplicateTicket),
		errors.Is(err, event.ErrEventFull),
		errors.Is(err, event.ErrEventNotActive),
		errors.Is(err, ticket.ErrTicketAlreadyUsed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, application.ErrEventBusy):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "内部サーバーエラー").SetInternal(err)
	}
}

// callerID は X-User-ID ヘッダーから呼び出し元を取得する
func callerID(c echo.Context) (string, error) {
	id := strings.TrimSpace(c.Request().Header.Get(middleware.HeaderUserID))
	if id == "" {
		return "", errMissingIdentity
	}
	return id, nil
}

func parseEventID(c echo.Context) (uint32, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, errInvalidEventID
	}
	return uint32(id), nil
}

func parseTicketAddress(c echo.Context) (address.Address, error) {
	addr, err := address.Parse(c.Param("address"))
	if err != nil {
		return address.Address{}, errInvalidAddress
	}
	return addr, nil
}

// ownerParam はパスの所有者をデコードして返す
// RawPath がある場合 echo はパラメータをデコードしない（%2F など）
func ownerParam(c echo.Context) (string, error) {
	owner := c.Param("owner")
	if c.Request().URL.RawPath != "" {
		decoded, err := url.PathUnescape(owner)
		if err != nil {
			return "", errInvalidOwner
		}
		owner = decoded
	}
	return strings.TrimSpace(owner), nil
}

func pageParams(c echo.Context) (int, int) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	return limit, offset
}
