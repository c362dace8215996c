package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/yourextrem/eventdao/internal/application"
	"github.com/yourextrem/eventdao/internal/domain/address"
	"github.com/yourextrem/eventdao/internal/domain/event"
	"github.com/yourextrem/eventdao/internal/domain/registry"
	"github.com/yourextrem/eventdao/internal/domain/ticket"
)

// MockRegistryService はRegistryServiceInterfaceのモック
type MockRegistryService struct {
	mock.Mock
}

func (m *MockRegistryService) InitializeRegistry(ctx context.Context, authority string) (*registry.Registry, error) {
	args := m.Called(ctx, authority)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registry.Registry), args.Error(1)
}

func (m *MockRegistryService) GetRegistry(ctx context.Context) (*registry.Registry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registry.Registry), args.Error(1)
}

// MockEventService はEventServiceInterfaceのモック
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) GetEvent(ctx context.Context, id uint32) (*event.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.Event), args.Error(1)
}

func (m *MockEventService) GetAvailability(ctx context.Context, id uint32) (uint32, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(uint32), args.Error(1)
}

// MockTicketService はTicketServiceInterfaceのモック
type MockTicketService struct {
	mock.Mock
}

func (m *MockTicketService) BuyTicket(ctx context.Context, input application.BuyTicketInput) (*ticket.Ticket, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}

func (m *MockTicketService) UseTicket(ctx context.Context, input application.UseTicketInput) (*ticket.Ticket, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}

func (m *MockTicketService) GetTicket(ctx context.Context, addr address.Address) (*ticket.Ticket, error) {
	args := m.Called(ctx, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}

func (m *MockTicketService) FindTicket(ctx context.Context, eventID uint32, owner string) (*ticket.Ticket, error) {
	args := m.Called(ctx, eventID, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}

func (m *MockTicketService) ListTicketsByOwner(ctx context.Context, owner string, limit, offset int) ([]*ticket.Ticket, error) {
	args := m.Called(ctx, owner, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ticket.Ticket), args.Error(1)
}

func (m *MockTicketService) ListTicketsByEvent(ctx context.Context, eventID uint32, limit, offset int) ([]*ticket.Ticket, error) {
	args := m.Called(ctx, eventID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ticket.Ticket), args.Error(1)
}

func (m *MockTicketService) CountTicketsByEvent(ctx context.Context, eventID uint32) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}
