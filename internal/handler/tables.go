package handler

import (
	"net/http"

	"teranga/internal/dto"
	"teranga/internal/middleware"
	"teranga/internal/service"

	"github.com/gin-gonic/gin"
)

type TablesHandler struct{ svc service.TableService }

func NewTablesHandler(svc service.TableService) *TablesHandler {
	return &TablesHandler{svc: svc}
}

// Create godoc
// @Summary Create a table with a fresh QR token
// @Tags tables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateTableRequest true "Table"
// @Success 201 {object} dto.TableResponse
// @Failure 403 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/tables [post]
func (h *TablesHandler) Create(c *gin.Context) {
	var req dto.CreateTableRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateTable(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary List tables with their active session
// @Tags tables
// @Produce json
// @Security BearerAuth
// @Param include_inactive query bool false "Include deactivated tables"
// @Success 200 {array} dto.TableResponse
// @Router /v1/tables [get]
func (h *TablesHandler) List(c *gin.Context) {
	resp, err := h.svc.ListTables(c.Request.Context(), middleware.ActorFrom(c), includeInactive(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Get a table
// @Tags tables
// @Produce json
// @Security BearerAuth
// @Param id path string true "Table ID"
// @Success 200 {object} dto.TableResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/tables/{id} [get]
func (h *TablesHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetTable(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary Update table details; the QR token never changes
// @Tags tables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Table ID"
// @Param body body dto.UpdateTableRequest true "Fields to change"
// @Success 200 {object} dto.TableResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/tables/{id} [put]
func (h *TablesHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateTableRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateTable(c.Request.Context(), middleware.ActorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deactivate godoc
// @Summary Deactivate a table and close its active session
// @Tags tables
// @Security BearerAuth
// @Param id path string true "Table ID"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/tables/{id} [delete]
func (h *TablesHandler) Deactivate(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeactivateTable(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reset godoc
// @Summary Close whatever session the table has so the next scan starts fresh
// @Tags tables
// @Produce json
// @Security BearerAuth
// @Param id path string true "Table ID"
// @Success 200 {object} dto.TableResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/tables/{id}/reset [post]
func (h *TablesHandler) Reset(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ResetTable(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CloseSession godoc
// @Summary Close an active table session
// @Tags tables
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/sessions/{id}/close [post]
func (h *TablesHandler) CloseSession(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.CloseSession(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
