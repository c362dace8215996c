package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yourextrem/eventdao/internal/application"
	"github.com/yourextrem/eventdao/internal/domain/address"
	"github.com/yourextrem/eventdao/internal/domain/event"
)

type EventHandler struct {
	eventService EventServiceInterface
}

func NewEventHandler(eventService EventServiceInterface) *EventHandler {
	return &EventHandler{eventService: eventService}
}

type CreateEventRequest struct {
	Title           string `json:"title" validate:"max=100" example:"Go Conference 2026"`
	Description     string `json:"description" validate:"max=500" example:"年次カンファレンス"`
	MaxParticipants uint32 `json:"max_participants" validate:"gt=0" example:"300"`
	TicketPrice     uint64 `json:"ticket_price" example:"5000"`
}

type EventResponse struct {
	ID                  uint32          `json:"id" example:"0"`
	Address             address.Address `json:"address"`
	Title               string          `json:"title" example:"Go Conference 2026"`
	Description         string          `json:"description" example:"年次カンファレンス"`
	Organizer           string          `json:"organizer" example:"alice"`
	MaxParticipants     uint32          `json:"max_participants" example:"300"`
	CurrentParticipants uint32          `json:"current_participants" example:"12"`
	Remaining           uint32          `json:"remaining" example:"288"`
	TicketPrice         uint64          `json:"ticket_price" example:"5000"`
	IsActive            bool            `json:"is_active" example:"true"`
	CreatedAt           time.Time       `json:"created_at"`
}

type AvailabilityResponse struct {
	EventID   uint32 `json:"event_id" example:"0"`
	Remaining uint32 `json:"remaining" example:"288"`
}

func toEventResponse(e *event.Event) *EventResponse {
	return &EventResponse{
		ID:                  e.ID,
		Address:             e.Address,
		Title:               e.Title,
		Description:         e.Description,
		Organizer:           e.Organizer,
		MaxParticipants:     e.MaxParticipants,
		CurrentParticipants: e.CurrentParticipants,
		Remaining:           e.Remaining(),
		TicketPrice:         e.TicketPrice,
		IsActive:            e.IsActive,
		CreatedAt:           e.CreatedAt,
	}
}

// Create godoc
// @Summary イベントを作成
// @Description 呼び出し元を主催者として新しいイベントを作成します
// @Tags events
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body CreateEventRequest true "イベント情報"
// @Success 201 {object} EventResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	organizer, err := callerID(c)
	if err != nil {
		return err
	}

	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return errInvalidBody
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	e, err := h.eventService.CreateEvent(c.Request().Context(), application.CreateEventInput{
		Organizer:       organizer,
		Title:           req.Title,
		Description:     req.Description,
		MaxParticipants: req.MaxParticipants,
		TicketPrice:     req.TicketPrice,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toEventResponse(e))
}

// GetByID godoc
// @Summary イベントを取得
// @Tags events
// @Produce json
// @Param id path int true "イベントID"
// @Success 200 {object} EventResponse
// @Failure 404 {object} map[string]string
// @Router /events/{id} [get]
func (h *EventHandler) GetByID(c echo.Context) error {
	id, err := parseEventID(c)
	if err != nil {
		return err
	}
	e, err := h.eventService.GetEvent(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// List godoc
// @Summary イベント一覧を取得
// @Tags events
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} EventResponse
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	limit, offset := pageParams(c)

	events, err := h.eventService.ListEvents(c.Request().Context(), limit, offset)
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]*EventResponse, len(events))
	for i, e := range events {
		responses[i] = toEventResponse(e)
	}
	return c.JSON(http.StatusOK, responses)
}

// Availability godoc
// @Summary 残り枠数を取得
// @Tags events
// @Produce json
// @Param id path int true "イベントID"
// @Success 200 {object} AvailabilityResponse
// @Failure 404 {object} map[string]string
// @Router /events/{id}/availability [get]
func (h *EventHandler) Availability(c echo.Context) error {
	id, err := parseEventID(c)
	if err != nil {
		return err
	}
	remaining, err := h.eventService.GetAvailability(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, AvailabilityResponse{EventID: id, Remaining: remaining})
}
