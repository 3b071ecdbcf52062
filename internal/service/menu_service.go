package service

import (
	"context"
	"strings"

	"teranga/internal/apierror"
	"teranga/internal/authz"
	"teranga/internal/dto"
	"teranga/internal/model"
	"teranga/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MenuService interface {
	CreateCategory(ctx context.Context, actor authz.Actor, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	UpdateCategory(ctx context.Context, actor authz.Actor, id uuid.UUID, req dto.UpdateCategoryRequest) (*dto.CategoryResponse, error)
	ListCategories(ctx context.Context, includeInactive bool) ([]dto.CategoryResponse, error)

	CreateItem(ctx context.Context, actor authz.Actor, req dto.CreateMenuItemRequest) (*dto.MenuItemResponse, error)
	UpdateItem(ctx context.Context, actor authz.Actor, id uuid.UUID, req dto.UpdateMenuItemRequest) (*dto.MenuItemResponse, error)
	GetItem(ctx context.Context, id uuid.UUID) (*dto.MenuItemResponse, error)
	ListItems(ctx context.Context, filter repository.MenuItemFilter) ([]dto.MenuItemResponse, error)

	SetRecipe(ctx context.Context, actor authz.Actor, itemID uuid.UUID, req dto.SetRecipeRequest) ([]dto.RecipeLineResponse, error)
	GetRecipe(ctx context.Context, actor authz.Actor, itemID uuid.UUID) ([]dto.RecipeLineResponse, error)

	// PublicMenu lists available items grouped by active category.
	PublicMenu(ctx context.Context) (*dto.PublicMenuResponse, error)
}

type menuService struct {
	tx          repository.Transactor
	menu        repository.MenuRepository
	ingredients repository.IngredientRepository
	cache       MenuCache
}

func NewMenuService(tx repository.Transactor, menu repository.MenuRepository, ingredients repository.IngredientRepository, cache MenuCache) MenuService {
	if cache == nil {
		cache = noMenuCache{}
	}
	return &menuService{tx: tx, menu: menu, ingredients: ingredients, cache: cache}
}

// ── Categories ───────────────────────────────────────────────────────────────

func (s *menuService) CreateCategory(ctx context.Context, actor authz.Actor, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	if err := authz.Require(actor, authz.PermMenuManage); err != nil {
		return nil, err
	}
	c := &model.MenuCategory{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Position:    req.Position,
		Active:      true,
	}
	if err := s.menu.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	resp := categoryToResponse(c)
	return &resp, nil
}

func (s *menuService) UpdateCategory(ctx context.Context, actor authz.Actor, id uuid.UUID, req dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	if err := authz.Require(actor, authz.PermMenuManage); err != nil {
		return nil, err
	}
	c, err := s.menu.FindCategoryByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "category %s not found", id)
	}
	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		c.Description = req.Description
	}
	if req.Position != nil {
		c.Position = *req.Position
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
	if err := s.menu.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	resp := categoryToResponse(c)
	return &resp, nil
}

func (s *menuService) ListCategories(ctx context.Context, includeInactive bool) ([]dto.CategoryResponse, error) {
	cats, err := s.menu.ListCategories(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.CategoryResponse, len(cats))
	for i := range cats {
		resp[i] = categoryToResponse(&cats[i])
	}
	return resp, nil
}

// ── Items ────────────────────────────────────────────────────────────────────

func (s *menuService) CreateItem(ctx context.Context, actor authz.Actor, req dto.CreateMenuItemRequest) (*dto.MenuItemResponse, error) {
	if err := authz.Require(actor, authz.PermMenuManage); err != nil {
		return nil, err
	}
	if !req.Price.IsPositive() {
		return nil, apierror.E(apierror.KindValidation, "price must be positive")
	}
	categoryID, err := s.resolveCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	m := &model.MenuItem{
		ID:          uuid.New(),
		CategoryID:  categoryID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price.Round(2),
		Available:   available,
	}
	if err := s.menu.CreateItem(ctx, m); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	log.Info().Str("menu_item_id", m.ID.String()).Str("name", m.Name).Str("actor", actor.Label()).Msg("menu: item created")
	resp := menuItemToResponse(m)
	return &resp, nil
}

// UpdateItem never touches existing order lines: they keep their price snapshot.
func (s *menuService) UpdateItem(ctx context.Context, actor authz.Actor, id uuid.UUID, req dto.UpdateMenuItemRequest) (*dto.MenuItemResponse, error) {
	if err := authz.Require(actor, authz.PermMenuManage); err != nil {
		return nil, err
	}
	m, err := s.menu.FindItemByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "menu item %s not found", id)
	}
	if req.Name != nil {
		m.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		m.Description = req.Description
	}
	if req.CategoryID != nil {
		categoryID, err := s.resolveCategory(ctx, req.CategoryID)
		if err != nil {
			return nil, err
		}
		m.CategoryID = categoryID
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, apierror.E(apierror.KindValidation, "price must be positive")
		}
		m.Price = req.Price.Round(2)
	}
	if req.Available != nil {
		m.Available = *req.Available
	}
	if err := s.menu.UpdateItem(ctx, m); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	resp := menuItemToResponse(m)
	return &resp, nil
}

func (s *menuService) GetItem(ctx context.Context, id uuid.UUID) (*dto.MenuItemResponse, error) {
	m, err := s.menu.FindItemByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "menu item %s not found", id)
	}
	resp := menuItemToResponse(m)
	return &resp, nil
}

func (s *menuService) ListItems(ctx context.Context, filter repository.MenuItemFilter) ([]dto.MenuItemResponse, error) {
	items, err := s.menu.ListItems(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.MenuItemResponse, len(items))
	for i := range items {
		resp[i] = menuItemToResponse(&items[i])
	}
	return resp, nil
}

// ── Recipes ──────────────────────────────────────────────────────────────────

func (s *menuService) SetRecipe(ctx context.Context, actor authz.Actor, itemID uuid.UUID, req dto.SetRecipeRequest) ([]dto.RecipeLineResponse, error) {
	if err := authz.Require(actor, authz.PermMenuManage); err != nil {
		return nil, err
	}
	if _, err := s.menu.FindItemByID(ctx, itemID); err != nil {
		return nil, notFoundOr(err, "menu item %s not found", itemID)
	}

	seen := make(map[uuid.UUID]bool, len(req.Lines))
	lines := make([]model.RecipeIngredient, 0, len(req.Lines))
	ids := make([]uuid.UUID, 0, len(req.Lines))
	for _, l := range req.Lines {
		ingID, err := uuid.Parse(l.IngredientID)
		if err != nil {
			return nil, apierror.E(apierror.KindValidation, "invalid ingredient_id %q", l.IngredientID)
		}
		if seen[ingID] {
			return nil, apierror.E(apierror.KindValidation, "ingredient %s listed twice", ingID)
		}
		if !l.Quantity.IsPositive() {
			return nil, apierror.E(apierror.KindValidation, "recipe quantity must be positive")
		}
		if err := checkQuantityScale("quantity", l.Quantity); err != nil {
			return nil, err
		}
		seen[ingID] = true
		ids = append(ids, ingID)
		lines = append(lines, model.RecipeIngredient{ID: uuid.New(), MenuItemID: itemID, IngredientID: ingID, Quantity: l.Quantity})
	}

	found, err := s.ingredients.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]model.Ingredient, len(found))
	for _, ing := range found {
		byID[ing.ID] = ing
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, apierror.E(apierror.KindNotFound, "ingredient %s not found", id)
		}
	}

	if err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		return s.menu.ReplaceRecipeTx(tx, itemID, lines)
	}); err != nil {
		return nil, err
	}
	log.Info().Str("menu_item_id", itemID.String()).Int("lines", len(lines)).Str("actor", actor.Label()).Msg("menu: recipe replaced")
	return recipeToResponse(lines, byID), nil
}

func (s *menuService) GetRecipe(ctx context.Context, actor authz.Actor, itemID uuid.UUID) ([]dto.RecipeLineResponse, error) {
	if err := authz.Require(actor, authz.PermStockView); err != nil {
		return nil, err
	}
	if _, err := s.menu.FindItemByID(ctx, itemID); err != nil {
		return nil, notFoundOr(err, "menu item %s not found", itemID)
	}
	lines, err := s.menu.ListRecipes(ctx, []uuid.UUID{itemID})
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.IngredientID
	}
	found, err := s.ingredients.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]model.Ingredient, len(found))
	for _, ing := range found {
		byID[ing.ID] = ing
	}
	return recipeToResponse(lines, byID), nil
}

// ── Public menu ──────────────────────────────────────────────────────────────

func (s *menuService) PublicMenu(ctx context.Context) (*dto.PublicMenuResponse, error) {
	if menu, ok := s.cache.Get(ctx); ok {
		return menu, nil
	}

	cats, err := s.menu.ListCategories(ctx, false)
	if err != nil {
		return nil, err
	}
	items, err := s.menu.ListItems(ctx, repository.MenuItemFilter{AvailableOnly: true})
	if err != nil {
		return nil, err
	}

	menu := &dto.PublicMenuResponse{
		Categories:    make([]dto.PublicMenuCategory, 0, len(cats)),
		Uncategorized: []dto.MenuItemResponse{},
	}
	index := make(map[uuid.UUID]int, len(cats))
	for _, c := range cats {
		index[c.ID] = len(menu.Categories)
		menu.Categories = append(menu.Categories, dto.PublicMenuCategory{
			ID: c.ID.String(), Name: c.Name, Items: []dto.MenuItemResponse{},
		})
	}
	for i := range items {
		item := menuItemToResponse(&items[i])
		if items[i].CategoryID != nil {
			if pos, ok := index[*items[i].CategoryID]; ok {
				menu.Categories[pos].Items = append(menu.Categories[pos].Items, item)
				continue
			}
			// Items of an inactive category stay hidden.
			continue
		}
		menu.Uncategorized = append(menu.Uncategorized, item)
	}

	s.cache.Set(ctx, menu)
	return menu, nil
}

func (s *menuService) resolveCategory(ctx context.Context, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, apierror.E(apierror.KindValidation, "invalid category_id %q", *raw)
	}
	if _, err := s.menu.FindCategoryByID(ctx, id); err != nil {
		return nil, notFoundOr(err, "category %s not found", id)
	}
	return &id, nil
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func categoryToResponse(c *model.MenuCategory) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		Position:    c.Position,
		Active:      c.Active,
	}
}

func menuItemToResponse(m *model.MenuItem) dto.MenuItemResponse {
	resp := dto.MenuItemResponse{
		ID:          m.ID.String(),
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Available:   m.Available,
	}
	if m.CategoryID != nil {
		s := m.CategoryID.String()
		resp.CategoryID = &s
	}
	return resp
}

func recipeToResponse(lines []model.RecipeIngredient, ingredients map[uuid.UUID]model.Ingredient) []dto.RecipeLineResponse {
	resp := make([]dto.RecipeLineResponse, len(lines))
	for i, l := range lines {
		resp[i] = dto.RecipeLineResponse{IngredientID: l.IngredientID.String(), Quantity: l.Quantity}
		if ing, ok := ingredients[l.IngredientID]; ok {
			resp[i].IngredientName = ing.Name
			resp[i].Unit = ing.Unit
		}
	}
	return resp
}

// recipeNeeds sums, per ingredient, what the given order lines consume.
func recipeNeeds(lines []model.RecipeIngredient, qtyByItem map[uuid.UUID]int) map[uuid.UUID]decimal.Decimal {
	needs := make(map[uuid.UUID]decimal.Decimal)
	for _, l := range lines {
		qty, ok := qtyByItem[l.MenuItemID]
		if !ok || qty == 0 {
			continue
		}
		needs[l.IngredientID] = needs[l.IngredientID].Add(l.Quantity.Mul(decimal.NewFromInt(int64(qty))))
	}
	return needs
}
