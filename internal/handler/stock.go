package handler

import (
	"context"
	"net/http"

	"teranga/internal/authz"
	"teranga/internal/dto"
	"teranga/internal/middleware"
	"teranga/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockHandler struct{ svc service.StockService }

func NewStockHandler(svc service.StockService) *StockHandler { return &StockHandler{svc: svc} }

// CreateIngredient godoc
// @Summary Create an ingredient with its opening balance
// @Tags stock
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateIngredientRequest true "Ingredient"
// @Success 201 {object} dto.IngredientResponse
// @Failure 403 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/ingredients [post]
func (h *StockHandler) CreateIngredient(c *gin.Context) {
	var req dto.CreateIngredientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateIngredient(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListIngredients godoc
// @Summary List ingredients
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param include_inactive query bool false "Include deactivated ingredients"
// @Success 200 {array} dto.IngredientResponse
// @Router /v1/ingredients [get]
func (h *StockHandler) ListIngredients(c *gin.Context) {
	resp, err := h.svc.ListIngredients(c.Request.Context(), middleware.ActorFrom(c), includeInactive(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LowStock godoc
// @Summary Ingredients at or below their reorder threshold
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.IngredientResponse
// @Router /v1/ingredients/low-stock [get]
func (h *StockHandler) LowStock(c *gin.Context) {
	resp, err := h.svc.LowStock(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetIngredient godoc
// @Summary Get an ingredient
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ingredient ID"
// @Success 200 {object} dto.IngredientResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/ingredients/{id} [get]
func (h *StockHandler) GetIngredient(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetIngredient(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateIngredient godoc
// @Summary Update an ingredient; quantities only move through adjustments
// @Tags stock
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ingredient ID"
// @Param body body dto.UpdateIngredientRequest true "Fields to change"
// @Success 200 {object} dto.IngredientResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/ingredients/{id} [put]
func (h *StockHandler) UpdateIngredient(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateIngredientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateIngredient(c.Request.Context(), middleware.ActorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Adjust godoc
// @Summary Apply a manual stock adjustment
// @Tags stock
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ingredient ID"
// @Param body body dto.AdjustStockRequest true "Adjustment"
// @Success 201 {object} dto.StockMovementResponse
// @Failure 403 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/ingredients/{id}/adjust [post]
func (h *StockHandler) Adjust(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AdjustStock(c.Request.Context(), middleware.ActorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Reconcile godoc
// @Summary Compare an ingredient quantity with its movement ledger
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ingredient ID"
// @Success 200 {object} dto.ReconcileResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/ingredients/{id}/reconcile [get]
func (h *StockHandler) Reconcile(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Reconcile(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movements godoc
// @Summary Stock movement ledger
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param ingredient_id query string false "Ingredient ID"
// @Param reason query string false "Reason"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.MovementListResponse
// @Router /v1/stock/movements [get]
func (h *StockHandler) Movements(c *gin.Context) {
	var filter dto.MovementFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), middleware.ActorFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Ingredient requests ──────────────────────────────────────────────────────

// CreateRequest godoc
// @Summary Ask for an ingredient to be restocked
// @Tags stock
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateIngredientRequestRequest true "Request"
// @Success 201 {object} dto.IngredientRequestResponse
// @Router /v1/stock/requests [post]
func (h *StockHandler) CreateRequest(c *gin.Context) {
	var req dto.CreateIngredientRequestRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateRequest(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListRequests godoc
// @Summary List restock requests
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved, rejected or fulfilled"
// @Success 200 {array} dto.IngredientRequestResponse
// @Router /v1/stock/requests [get]
func (h *StockHandler) ListRequests(c *gin.Context) {
	resp, err := h.svc.ListRequests(c.Request.Context(), middleware.ActorFrom(c), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ApproveRequest godoc
// @Summary Approve a pending restock request
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} dto.IngredientRequestResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/stock/requests/{id}/approve [post]
func (h *StockHandler) ApproveRequest(c *gin.Context) {
	h.reviewRequest(c, h.svc.ApproveRequest)
}

// RejectRequest godoc
// @Summary Reject a pending restock request
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} dto.IngredientRequestResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/stock/requests/{id}/reject [post]
func (h *StockHandler) RejectRequest(c *gin.Context) {
	h.reviewRequest(c, h.svc.RejectRequest)
}

// FulfillRequest godoc
// @Summary Receive the requested quantity into stock
// @Tags stock
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} dto.IngredientRequestResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/stock/requests/{id}/fulfill [post]
func (h *StockHandler) FulfillRequest(c *gin.Context) {
	h.reviewRequest(c, h.svc.FulfillIngredientRequest)
}

type requestAction func(ctx context.Context, actor authz.Actor, id uuid.UUID) (*dto.IngredientRequestResponse, error)

func (h *StockHandler) reviewRequest(c *gin.Context, action requestAction) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := action(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
