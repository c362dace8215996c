package handler

import "github.com/labstack/echo/v4"

// RegisterRoutes は /api/v1 配下のルートを登録する
func RegisterRoutes(g *echo.Group, registry *RegistryHandler, events *EventHandler, tickets *TicketHandler) {
	g.POST("/registry", registry.Initialize)
	g.GET("/registry", registry.Get)

	g.POST("/events", events.Create)
	g.GET("/events", events.List)
	g.GET("/events/:id", events.GetByID)
	g.GET("/events/:id/availability", events.Availability)

	g.POST("/events/:id/tickets", tickets.Buy)
	g.GET("/events/:id/tickets", tickets.ListByEvent)
	g.GET("/events/:id/tickets/:owner", tickets.GetByOwner)
	g.POST("/events/:id/tickets/:owner/use", tickets.UseByOwner)

	g.GET("/tickets", tickets.ListMine)
	g.GET("/tickets/:address", tickets.GetByAddress)
	g.POST("/tickets/:address/use", tickets.Use)
}
