package handler

import (
	"context"

	"github.com/yourextrem/eventdao/internal/application"
	"github.com/yourextrem/eventdao/internal/domain/address"
	"github.com/yourextrem/eventdao/internal/domain/event"
	"github.com/yourextrem/eventdao/internal/domain/registry"
	"github.com/yourextrem/eventdao/internal/domain/ticket"
)

// RegistryServiceInterface はレジストリサービスのインターフェース
type RegistryServiceInterface interface {
	InitializeRegistry(ctx context.Context, authority string) (*registry.Registry, error)
	GetRegistry(ctx context.Context) (*registry.Registry, error)
}

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error)
	GetEvent(ctx context.Context, id uint32) (*event.Event, error)
	ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error)
	GetAvailability(ctx context.Context, id uint32) (uint32, error)
}

// TicketServiceInterface はチケットサービスのインターフェース
type TicketServiceInterface interface {
	BuyTicket(ctx context.Context, input application.BuyTicketInput) (*ticket.Ticket, error)
	UseTicket(ctx context.Context, input application.UseTicketInput) (*ticket.Ticket, error)
	GetTicket(ctx context.Context, addr address.Address) (*ticket.Ticket, error)
	FindTicket(ctx context.Context, eventID uint32, owner string) (*ticket.Ticket, error)
	ListTicketsByOwner(ctx context.Context, owner string, limit, offset int) ([]*ticket.Ticket, error)
	ListTicketsByEvent(ctx context.Context, eventID uint32, limit, offset int) ([]*ticket.Ticket, error)
	CountTicketsByEvent(ctx context.Context, eventID uint32) (int, error)
}

var (
	_ RegistryServiceInterface = (*application.RegistryService)(nil)
	_ EventServiceInterface    = (*application.EventService)(nil)
	_ TicketServiceInterface   = (*application.TicketService)(nil)
)
