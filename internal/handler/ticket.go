package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/MintEngine/mintcraft-node/internal/engine"
	"github.com/MintEngine/mintcraft-node/internal/model"
	"github.com/MintEngine/mintcraft-node/internal/repository"
)

// TicketHandler drives the booking and lifecycle endpoints.  Buying is
// for players, claiming and reporting for servers, finalizing for
// whoever the engine decides is entitled.
type TicketHandler struct {
	Engine    *engine.Engine
	Instances *repository.InstanceRepo
}

func NewTicketHandler(e *engine.Engine, instances *repository.InstanceRepo) *TicketHandler {
	return &TicketHandler{Engine: e, Instances: instances}
}

type buyTicketReq struct {
	DungeonID uint64 `json:"dungeon_id"`
}

type endTicketReq struct {
	Outcome string `json:"outcome"`
}

// Buy books a ticket for the authenticated player.  The ticket price is
// reserved on their balance until the instance starts or expires.
func (h *TicketHandler) Buy(c echo.Context) error {
	player, ok := currentAccountID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req buyTicketReq
	if err := c.Bind(&req); err != nil || req.DungeonID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dungeon_id required"})
	}
	ticketID, err := h.Engine.BuyTicket(c.Request().Context(), player, model.DungeonID(req.DungeonID))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"ticket_id": string(ticketID)})
}

// Start claims a booked ticket for the authenticated server.
func (h *TicketHandler) Start(c echo.Context) error {
	server, ok := currentAccountID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID := model.TicketID(c.Param("ticket_id"))
	if ticketID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_id required"})
	}
	if err := h.Engine.Start(c.Request().Context(), server, ticketID); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// End reports the outcome of a started session.  Only the server that
// claimed the ticket may report.
func (h *TicketHandler) End(c echo.Context) error {
	server, ok := currentAccountID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID := model.TicketID(c.Param("ticket_id"))
	if ticketID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_id required"})
	}
	var req endTicketReq
	if err := c.Bind(&req); err != nil || req.Outcome == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "outcome required"})
	}
	if err := h.Engine.End(c.Request().Context(), server, ticketID, model.Outcome(req.Outcome)); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Finalize closes a booked or ended instance ahead of the sweep.
func (h *TicketHandler) Finalize(c echo.Context) error {
	caller, ok := currentAccountID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID := model.TicketID(c.Param("ticket_id"))
	if ticketID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_id required"})
	}
	if err := h.Engine.Finalize(c.Request().Context(), caller, ticketID); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Mine lists the authenticated player's instances, newest first.
func (h *TicketHandler) Mine(c echo.Context) error {
	player, ok := currentAccountID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	instances, err := h.Instances.ListByPlayer(ctx, player)
	if err != nil {
		return engineError(c, err)
	}
	views := make([]instanceView, 0, len(instances))
	for _, inst := range instances {
		views = append(views, newInstanceView(inst))
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": views})
}
