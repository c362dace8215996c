package handler

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/yourextrem/eventdao/internal/api/middleware"
)

type mocks struct {
	registry *MockRegistryService
	events   *MockEventService
	tickets  *MockTicketService
}

func (m *mocks) assertExpectations(t *testing.T) {
	m.registry.AssertExpectations(t)
	m.events.AssertExpectations(t)
	m.tickets.AssertExpectations(t)
}

func newTestRouter() (*echo.Echo, *mocks) {
	m := &mocks{
		registry: new(MockRegistryService),
		events:   new(MockEventService),
		tickets:  new(MockTicketService),
	}
	e := NewTestEcho()
	RegisterRoutes(e.Group("/api/v1"),
		NewRegistryHandler(m.registry),
		NewEventHandler(m.events),
		NewTicketHandler(m.tickets),
	)
	return e, m
}

func doRequest(e *echo.Echo, method, path, user, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if user != "" {
		req.Header.Set(middleware.HeaderUserID, user)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

