package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/MintEngine/mintcraft-node/internal/model"
	"github.com/MintEngine/mintcraft-node/internal/repository"
)

// AdminHandler covers the manager registry and the asset registry.
// Both are MANAGER-only surfaces.
type AdminHandler struct {
	Accounts *repository.AccountRepo
	Assets   *repository.AssetRepo
}

func NewAdminHandler(accounts *repository.AccountRepo, assets *repository.AssetRepo) *AdminHandler {
	return &AdminHandler{Accounts: accounts, Assets: assets}
}

// PromoteManager grants the MANAGER role to an account.
func (h *AdminHandler) PromoteManager(c echo.Context) error {
	id, err := pathUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid account id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Accounts.Promote(ctx, model.AccountID(id)); err != nil {
		if err == repository.ErrAlreadyManager {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already a manager"})
		}
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DemoteManager revokes the MANAGER role, reverting the account to
// PLAYER.
func (h *AdminHandler) DemoteManager(c echo.Context) error {
	id, err := pathUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid account id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Accounts.Demote(ctx, model.AccountID(id)); err != nil {
		if err == repository.ErrNotManager {
			return c.JSON(http.StatusConflict, echo.Map{"error": "not a manager"})
		}
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type createAssetReq struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	InUsing bool   `json:"in_using"`
}

type setInUsingReq struct {
	InUsing bool `json:"in_using"`
}

// CreateAsset registers a fungible asset.  Only assets flagged in_using
// may be granted by dungeons.
func (h *AdminHandler) CreateAsset(c echo.Context) error {
	var req createAssetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ID == 0 || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id and name required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Assets.Create(ctx, model.AssetID(req.ID), req.Name, req.InUsing); err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": req.ID})
}

// SetAssetInUsing toggles whether an asset may be granted.  Existing
// instance snapshots are unaffected; mints for captured grants still
// succeed.
func (h *AdminHandler) SetAssetInUsing(c echo.Context) error {
	id, err := pathUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid asset id"})
	}
	var req setInUsingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Assets.SetInUsing(ctx, model.AssetID(id), req.InUsing); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AssetBalance reports one account's holding of one asset.
func (h *AdminHandler) AssetBalance(c echo.Context) error {
	assetID, err := pathUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid asset id"})
	}
	accountID, err := pathUint(c, "account_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid account id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	amount, err := h.Assets.Balance(ctx, model.AssetID(assetID), model.AccountID(accountID))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"asset_id":   assetID,
		"account_id": accountID,
		"amount":     amount,
	})
}
