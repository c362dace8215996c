package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yourextrem/eventdao/internal/application"
	"github.com/yourextrem/eventdao/internal/domain/address"
	"github.com/yourextrem/eventdao/internal/domain/ticket"
)

// HeaderTotalCount は一覧の総件数を返すヘッダー
const HeaderTotalCount = "X-Total-Count"

type TicketHandler struct {
	service TicketServiceInterface
}

func NewTicketHandler(s TicketServiceInterface) *TicketHandler {
	return &TicketHandler{service: s}
}

type TicketResponse struct {
	Address      address.Address `json:"address"`
	EventID      uint32          `json:"event_id" example:"0"`
	Owner        string          `json:"owner" example:"bob"`
	PurchaseTime time.Time       `json:"purchase_time"`
	IsUsed       bool            `json:"is_used" example:"false"`
	UsedAt       *time.Time      `json:"used_at,omitempty"`
}

func toTicketResponse(t *ticket.Ticket) TicketResponse {
	return TicketResponse{
		Address:      t.Address,
		EventID:      t.EventID,
		Owner:        t.Owner,
		PurchaseTime: t.PurchaseTime,
		IsUsed:       t.IsUsed,
		UsedAt:       t.UsedAt,
	}
}

func toTicketResponses(tickets []*ticket.Ticket) []TicketResponse {
	out := make([]TicketResponse, len(tickets))
	for i, t := range tickets {
		out[i] = toTicketResponse(t)
	}
	return out
}

// Buy godoc
// @Summary チケットを購入
// @Description 呼び出し元を購入者としてチケットを1枚購入します
// @Tags tickets
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path int true "イベントID"
// @Success 201 {object} TicketResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /events/{id}/tickets [post]
func (h *TicketHandler) Buy(c echo.Context) error {
	buyer, err := callerID(c)
	if err != nil {
		return err
	}
	eventID, err := parseEventID(c)
	if err != nil {
		return err
	}

	t, err := h.service.BuyTicket(c.Request().Context(), application.BuyTicketInput{EventID: eventID, Buyer: buyer})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toTicketResponse(t))
}

// Use godoc
// @Summary チケットを使用
// @Tags tickets
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param address path string true "チケットアドレス"
// @Success 200 {object} TicketResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /tickets/{address}/use [post]
func (h *TicketHandler) Use(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	addr, err := parseTicketAddress(c)
	if err != nil {
		return err
	}
	return h.use(c, caller, addr)
}

// UseByOwner godoc
// @Summary イベントIDと所有者を指定してチケットを使用
// @Tags tickets
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path int true "イベントID"
// @Param owner path string true "所有者"
// @Success 200 {object} TicketResponse
// @Router /events/{id}/tickets/{owner}/use [post]
func (h *TicketHandler) UseByOwner(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	eventID, err := parseEventID(c)
	if err != nil {
		return err
	}
	owner, err := ownerParam(c)
	if err != nil {
		return err
	}
	return h.use(c, caller, address.Ticket(eventID, owner))
}

func (h *TicketHandler) use(c echo.Context, caller string, addr address.Address) error {
	t, err := h.service.UseTicket(c.Request().Context(), application.UseTicketInput{Caller: caller, Ticket: addr})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toTicketResponse(t))
}

// GetByAddress godoc
// @Summary チケットを取得
// @Tags tickets
// @Produce json
// @Param address path string true "チケットアドレス"
// @Success 200 {object} TicketResponse
// @Failure 404 {object} map[string]string
// @Router /tickets/{address} [get]
func (h *TicketHandler) GetByAddress(c echo.Context) error {
	addr, err := parseTicketAddress(c)
	if err != nil {
		return err
	}
	t, err := h.service.GetTicket(c.Request().Context(), addr)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toTicketResponse(t))
}

// GetByOwner godoc
// @Summary イベントIDと所有者でチケットを取得
// @Tags tickets
// @Produce json
// @Param id path int true "イベントID"
// @Param owner path string true "所有者"
// @Success 200 {object} TicketResponse
// @Failure 404 {object} map[string]string
// @Router /events/{id}/tickets/{owner} [get]
func (h *TicketHandler) GetByOwner(c echo.Context) error {
	eventID, err := parseEventID(c)
	if err != nil {
		return err
	}
	owner, err := ownerParam(c)
	if err != nil {
		return err
	}
	t, err := h.service.FindTicket(c.Request().Context(), eventID, owner)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toTicketResponse(t))
}

// ListMine godoc
// @Summary 自分のチケット一覧
// @Tags tickets
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Success 200 {array} TicketResponse
// @Router /tickets [get]
func (h *TicketHandler) ListMine(c echo.Context) error {
	owner, err := callerID(c)
	if err != nil {
		return err
	}
	limit, offset := pageParams(c)

	tickets, err := h.service.ListTicketsByOwner(c.Request().Context(), owner, limit, offset)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toTicketResponses(tickets))
}

// ListByEvent godoc
// @Summary イベントのチケット一覧
// @Tags tickets
// @Produce json
// @Param id path int true "イベントID"
// @Success 200 {array} TicketResponse
// @Header 200 {int} X-Total-Count "発行済み枚数"
// @Failure 404 {object} map[string]string
// @Router /events/{id}/tickets [get]
func (h *TicketHandler) ListByEvent(c echo.Context) error {
	eventID, err := parseEventID(c)
	if err != nil {
		return err
	}
	limit, offset := pageParams(c)

	tickets, err := h.service.ListTicketsByEvent(c.Request().Context(), eventID, limit, offset)
	if err != nil {
		return toHTTPError(err)
	}
	total, err := h.service.CountTicketsByEvent(c.Request().Context(), eventID)
	if err != nil {
		return toHTTPError(err)
	}
	c.Response().Header().Set(HeaderTotalCount, strconv.Itoa(total))
	return c.JSON(http.StatusOK, toTicketResponses(tickets))
}
