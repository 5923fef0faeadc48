package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/MintEngine/mintcraft-node/internal/model"
	"github.com/MintEngine/mintcraft-node/internal/repository"
)

// BrowseHandler serves the unauthenticated catalog endpoints.  These
// sit behind the response cache, so they read straight from the
// repositories instead of opening engine transactions.
type BrowseHandler struct {
	Dungeons  *repository.DungeonRepo
	Instances *repository.InstanceRepo
	Assets    *repository.AssetRepo
}

func NewBrowseHandler(d *repository.DungeonRepo, i *repository.InstanceRepo, a *repository.AssetRepo) *BrowseHandler {
	return &BrowseHandler{Dungeons: d, Instances: i, Assets: a}
}

// ----- views -----

type dungeonView struct {
	ID             uint64                `json:"id"`
	TicketPrice    uint64                `json:"ticket_price"`
	GrantedAssets  []model.AssetGrant    `json:"granted_assets"`
	OutcomeRewards []model.OutcomeReward `json:"outcome_rewards"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

func newDungeonView(d model.DungeonDefinition) dungeonView {
	return dungeonView{
		ID:             uint64(d.ID),
		TicketPrice:    uint64(d.TicketPrice),
		GrantedAssets:  d.GrantedAssets,
		OutcomeRewards: d.OutcomeRewards,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type instanceView struct {
	TicketID       string                `json:"ticket_id"`
	DungeonID      uint64                `json:"dungeon_id"`
	PlayerID       uint64                `json:"player_id"`
	CreatedAtTick  uint64                `json:"created_at_tick"`
	Status         model.InstanceStatus  `json:"status"`
	Price          uint64                `json:"price"`
	GrantedAssets  []model.AssetGrant    `json:"granted_assets"`
	OutcomeRewards []model.OutcomeReward `json:"outcome_rewards"`
}

func newInstanceView(i model.DungeonInstance) instanceView {
	return instanceView{
		TicketID:       string(i.TicketID),
		DungeonID:      uint64(i.DungeonID),
		PlayerID:       uint64(i.Player),
		CreatedAtTick:  uint64(i.CreatedAt),
		Status:         i.Status,
		Price:          uint64(i.Price),
		GrantedAssets:  i.GrantedAssets,
		OutcomeRewards: i.OutcomeRewards,
	}
}

type assetView struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	InUsing     bool      `json:"in_using"`
	TotalSupply uint64    `json:"total_supply"`
	CreatedAt   time.Time `json:"created_at"`
}

// ----- endpoints -----

// ListDungeons returns the whole catalog.
func (h *BrowseHandler) ListDungeons(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	defs, err := h.Dungeons.List(ctx)
	if err != nil {
		return engineError(c, err)
	}
	views := make([]dungeonView, 0, len(defs))
	for _, d := range defs {
		views = append(views, newDungeonView(d))
	}
	return c.JSON(http.StatusOK, echo.Map{"dungeons": views})
}

// GetDungeon returns one definition.
func (h *BrowseHandler) GetDungeon(c echo.Context) error {
	id, err := pathUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid dungeon id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	def, err := h.Dungeons.Get(ctx, model.DungeonID(id))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, newDungeonView(def))
}

// GetTicket returns one instance with its captured snapshot.
func (h *BrowseHandler) GetTicket(c echo.Context) error {
	ticketID := model.TicketID(c.Param("ticket_id"))
	if ticketID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_id required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	inst, err := h.Instances.Get(ctx, ticketID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, newInstanceView(inst))
}

// ListAssets returns the asset registry.
func (h *BrowseHandler) ListAssets(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	assets, err := h.Assets.List(ctx)
	if err != nil {
		return engineError(c, err)
	}
	views := make([]assetView, 0, len(assets))
	for _, a := range assets {
		views = append(views, assetView{
			ID:          uint64(a.ID),
			Name:        a.Name,
			InUsing:     a.InUsing,
			TotalSupply: a.TotalSupply,
			CreatedAt:   a.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"assets": views})
}
