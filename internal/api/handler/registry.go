package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yourextrem/eventdao/internal/domain/address"
	"github.com/yourextrem/eventdao/internal/domain/registry"
)

type RegistryHandler struct {
	service RegistryServiceInterface
}

func NewRegistryHandler(s RegistryServiceInterface) *RegistryHandler {
	return &RegistryHandler{service: s}
}

type RegistryResponse struct {
	Address     address.Address `json:"address"`
	Authority   string          `json:"authority" example:"alice"`
	TotalEvents uint32          `json:"total_events" example:"3"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toRegistryResponse(r *registry.Registry) RegistryResponse {
	return RegistryResponse{
		Address:     r.Address,
		Authority:   r.Authority,
		TotalEvents: r.TotalEvents,
		CreatedAt:   r.CreatedAt,
	}
}

// Initialize godoc
// @Summary レジストリを初期化
// @Description 呼び出し元を authority としてレジストリを1度だけ作成します
// @Tags registry
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Success 201 {object} RegistryResponse
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /registry [post]
func (h *RegistryHandler) Initialize(c echo.Context) error {
	authority, err := callerID(c)
	if err != nil {
		return err
	}

	r, err := h.service.InitializeRegistry(c.Request().Context(), authority)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toRegistryResponse(r))
}

// Get godoc
// @Summary レジストリを取得
// @Tags registry
// @Produce json
// @Success 200 {object} RegistryResponse
// @Failure 404 {object} map[string]string
// @Router /registry [get]
func (h *RegistryHandler) Get(c echo.Context) error {
	r, err := h.service.GetRegistry(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toRegistryResponse(r))
}
