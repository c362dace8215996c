package application

import (
	"errors"

	"github.com/yourextrem/eventdao/internal/domain/event"
	"github.com/yourextrem/eventdao/internal/domain/registry"
	"github.com/yourextrem/eventdao/internal/domain/ticket"
	"github.com/yourextrem/eventdao/internal/pkg/metrics"
)

var (
	// ErrEventBusy は同じイベントの購入処理が混み合っている場合のエラー（再試行可）
	ErrEventBusy = errors.New("event is being processed by another request, retry later")
	// ErrIdentityRequired は呼び出し元のIDが空の場合のエラー
	ErrIdentityRequired = errors.New("caller identity is required")
)

// 操作名（メトリクスのラベル）
const (
	opInitializeRegistry = "initialize_registry"
	opCreateEvent        = "create_event"
	opBuyTicket          = "buy_ticket"
	opUseTicket          = "use_ticket"
)

// operationStatus はエラーをメトリクスのラベルに変換する
func operationStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, registry.ErrAlreadyInitialized):
		return "already_initialized"
	case errors.Is(err, registry.ErrRegistryNotFound):
		return "registry_not_found"
	case errors.Is(err, event.ErrInvalidParameters),
		errors.Is(err, registry.ErrAuthorityRequired),
		errors.Is(err, ticket.ErrOwnerRequired),
		errors.Is(err, ErrIdentityRequired):
		return "invalid_parameters"
	case errors.Is(err, event.ErrEventNotFound):
		return "event_not_found"
	case errors.Is(err, event.ErrEventNotActive):
		return "event_not_active"
	case errors.Is(err, event.ErrEventFull):
		return "event_full"
	case errors.Is(err, ticket.ErrDuplicateTicket):
		return "duplicate_ticket"
	case errors.Is(err, ticket.ErrTicketNotFound):
		return "ticket_not_found"
	case errors.Is(err, ticket.ErrNotTicketOwner):
		return "not_ticket_owner"
	case errors.Is(err, ticket.ErrTicketAlreadyUsed):
		return "ticket_already_used"
	case errors.Is(err, ErrEventBusy):
		return "busy"
	default:
		return "error"
	}
}

func observe(operation string, err error) {
	metrics.Get().ObserveOperation(operation, operationStatus(err))
}
