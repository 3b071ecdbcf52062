package handler

import (
	"net/http"

	"teranga/internal/apierror"
	"teranga/internal/dto"
	"teranga/internal/middleware"
	"teranga/internal/repository"
	"teranga/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MenuHandler struct{ svc service.MenuService }

func NewMenuHandler(svc service.MenuService) *MenuHandler { return &MenuHandler{svc: svc} }

// ── Categories ───────────────────────────────────────────────────────────────

// CreateCategory godoc
// @Summary Create a menu category
// @Tags menu
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateCategoryRequest true "Category"
// @Success 201 {object} dto.CategoryResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/menu/categories [post]
func (h *MenuHandler) CreateCategory(c *gin.Context) {
	var req dto.CreateCategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateCategory(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListCategories godoc
// @Summary List menu categories
// @Tags menu
// @Produce json
// @Security BearerAuth
// @Param include_inactive query bool false "Include hidden categories"
// @Success 200 {array} dto.CategoryResponse
// @Router /v1/menu/categories [get]
func (h *MenuHandler) ListCategories(c *gin.Context) {
	resp, err := h.svc.ListCategories(c.Request.Context(), includeInactive(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateCategory godoc
// @Summary Update a menu category
// @Tags menu
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Param body body dto.UpdateCategoryRequest true "Fields to change"
// @Success 200 {object} dto.CategoryResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/menu/categories/{id} [put]
func (h *MenuHandler) UpdateCategory(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCategoryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateCategory(c.Request.Context(), middleware.ActorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Items ────────────────────────────────────────────────────────────────────

// CreateItem godoc
// @Summary Create a dish
// @Tags menu
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateMenuItemRequest true "Dish"
// @Success 201 {object} dto.MenuItemResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/menu/items [post]
func (h *MenuHandler) CreateItem(c *gin.Context) {
	var req dto.CreateMenuItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateItem(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListItems godoc
// @Summary List dishes
// @Tags menu
// @Produce json
// @Security BearerAuth
// @Param category_id query string false "Category ID"
// @Param name query string false "Name contains"
// @Param available query bool false "Only available dishes"
// @Success 200 {array} dto.MenuItemResponse
// @Router /v1/menu/items [get]
func (h *MenuHandler) ListItems(c *gin.Context) {
	filter := repository.MenuItemFilter{
		Name:          c.Query("name"),
		AvailableOnly: c.Query("available") == "true",
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid category_id"))
			return
		}
		filter.CategoryID = &id
	}
	resp, err := h.svc.ListItems(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetItem godoc
// @Summary Get a dish
// @Tags menu
// @Produce json
// @Security BearerAuth
// @Param id path string true "Dish ID"
// @Success 200 {object} dto.MenuItemResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/menu/items/{id} [get]
func (h *MenuHandler) GetItem(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateItem godoc
// @Summary Update a dish
// @Tags menu
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Dish ID"
// @Param body body dto.UpdateMenuItemRequest true "Fields to change"
// @Success 200 {object} dto.MenuItemResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/menu/items/{id} [put]
func (h *MenuHandler) UpdateItem(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateMenuItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateItem(c.Request.Context(), middleware.ActorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetRecipe godoc
// @Summary Ingredients consumed by one portion of a dish
// @Tags menu
// @Produce json
// @Security BearerAuth
// @Param id path string true "Dish ID"
// @Success 200 {array} dto.RecipeLineResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/menu/items/{id}/recipe [get]
func (h *MenuHandler) GetRecipe(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetRecipe(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetRecipe godoc
// @Summary Replace the recipe of a dish
// @Tags menu
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Dish ID"
// @Param body body dto.SetRecipeRequest true "Recipe"
// @Success 200 {array} dto.RecipeLineResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/menu/items/{id}/recipe [put]
func (h *MenuHandler) SetRecipe(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.SetRecipeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetRecipe(c.Request.Context(), middleware.ActorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
