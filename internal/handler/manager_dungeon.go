package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/MintEngine/mintcraft-node/internal/engine"
	"github.com/MintEngine/mintcraft-node/internal/model"
)

// DungeonHandler exposes the manager-only registry operations.  All
// authorization beyond the MANAGER role check in the route group is
// re-verified inside the engine, so a stale token cannot slip a
// mutation through after a demotion.
type DungeonHandler struct {
	Engine *engine.Engine
}

func NewDungeonHandler(e *engine.Engine) *DungeonHandler {
	return &DungeonHandler{Engine: e}
}

type createDungeonReq struct {
	ID             uint64                `json:"id"`
	TicketPrice    uint64                `json:"ticket_price"`
	GrantedAssets  []model.AssetGrant    `json:"granted_assets"`
	OutcomeRewards []model.OutcomeReward `json:"outcome_rewards"`
}

type modifyPriceReq struct {
	TicketPrice uint64 `json:"ticket_price"`
}

type modifyAssetsReq struct {
	GrantedAssets []model.AssetGrant `json:"granted_assets"`
}

type modifyDistributionReq struct {
	OutcomeRewards []model.OutcomeReward `json:"outcome_rewards"`
}

// Create registers a new dungeon definition under a caller-chosen id.
func (h *DungeonHandler) Create(c echo.Context) error {
	caller, ok := currentAccountID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createDungeonReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id required"})
	}
	err := h.Engine.CreateDungeon(c.Request().Context(), caller,
		model.DungeonID(req.ID), model.Balance(req.TicketPrice), req.GrantedAssets, req.OutcomeRewards)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": req.ID})
}

// ModifyPrice changes the ticket price of a definition.  Tickets that
// are already booked keep settling with their captured price.
func (h *DungeonHandler) ModifyPrice(c echo.Context) error {
	caller, ok := currentAccountID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid dungeon id"})
	}
	var req modifyPriceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Engine.ModifyPrice(c.Request().Context(), caller, model.DungeonID(id), model.Balance(req.TicketPrice)); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ModifyAssets replaces the granted-asset list of a definition.
func (h *DungeonHandler) ModifyAssets(c echo.Context) error {
	caller, ok := currentAccountID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid dungeon id"})
	}
	var req modifyAssetsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Engine.ModifyAssetsSupply(c.Request().Context(), caller, model.DungeonID(id), req.GrantedAssets); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ModifyDistribution replaces the outcome reward table of a definition.
func (h *DungeonHandler) ModifyDistribution(c echo.Context) error {
	caller, ok := currentAccountID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid dungeon id"})
	}
	var req modifyDistributionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Engine.ModifyDistributionRatio(c.Request().Context(), caller, model.DungeonID(id), req.OutcomeRewards); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
