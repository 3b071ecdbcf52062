// cmd/seed/main.go: creates or updates the bootstrap admin and, with
// SEED_DEMO=true, a small demo restaurant (tables, menu, recipes, stock).
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"os"

	"teranga/internal/authz"
	"teranga/internal/config"
	"teranga/internal/dto"
	"teranga/internal/infra"
	"teranga/internal/model"
	"teranga/internal/repository"
	"teranga/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	username := envOr("SEED_ADMIN_USERNAME", "admin")
	password := envOr("SEED_ADMIN_PASSWORD", "teranga-admin")

	admin, err := upsertAdmin(db, username, password)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin")
	}
	log.Info().Str("username", username).Msg("admin user created/updated")

	if os.Getenv("SEED_DEMO") != "true" {
		return
	}
	actor := authz.Actor{UserID: admin.ID, Username: admin.Username, Name: admin.Name, Role: authz.RoleAdmin}
	if err := seedDemo(context.Background(), cfg, db, actor); err != nil {
		log.Fatal().Err(err).Msg("failed to seed demo data")
	}
	log.Info().Msg("demo restaurant seeded")
}

func upsertAdmin(db *gorm.DB, username, password string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, err
	}
	err = db.Exec(`
		INSERT INTO users (id, username, name, password_hash, role, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, true, now(), now())
		ON CONFLICT (username) DO UPDATE
		SET password_hash = EXCLUDED.password_hash,
		    role = EXCLUDED.role,
		    active = true,
		    updated_at = now()
	`, uuid.New(), username, "Administrator", string(hash), string(authz.RoleAdmin)).Error
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := db.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

type demoDish struct {
	name     string
	category string
	price    string
	recipe   map[string]string
}

func seedDemo(ctx context.Context, cfg *config.Config, db *gorm.DB, actor authz.Actor) error {
	tx := repository.NewTransactor(db)
	menuRepo := repository.NewMenuRepository(db)
	ingredientRepo := repository.NewIngredientRepository(db)

	tables := service.NewTableService(repository.NewTableRepository(db), repository.NewSessionRepository(db), cfg.PublicBaseURL)
	menu := service.NewMenuService(tx, menuRepo, ingredientRepo, nil)
	stock := service.NewStockService(tx, ingredientRepo, repository.NewStockMovementRepository(db),
		repository.NewIngredientRequestRepository(db), menuRepo, nil)

	for _, label := range []string{"T1", "T2", "T3", "T4", "Terrace 1", "Terrace 2"} {
		t, err := tables.CreateTable(ctx, actor, dto.CreateTableRequest{Label: label, Seats: 4})
		if err != nil {
			return err
		}
		log.Info().Str("table", t.Label).Str("qr_url", t.QRURL).Msg("table")
	}

	ingredients := map[string]string{}
	for _, in := range []struct{ name, unit, qty, threshold string }{
		{"Rice", "kg", "25", "5"},
		{"Thiof", "kg", "8", "2"},
		{"Chicken", "kg", "10", "3"},
		{"Onion", "kg", "12", "2"},
		{"Bissap flowers", "kg", "3", "0.5"},
		{"Sugar", "kg", "6", "1"},
	} {
		resp, err := stock.CreateIngredient(ctx, actor, dto.CreateIngredientRequest{
			Name:             in.name,
			Unit:             in.unit,
			InitialQuantity:  decimal.RequireFromString(in.qty),
			ReorderThreshold: decimal.RequireFromString(in.threshold),
		})
		if err != nil {
			return err
		}
		ingredients[in.name] = resp.ID
	}

	categories := map[string]string{}
	for i, name := range []string{"Mains", "Drinks"} {
		resp, err := menu.CreateCategory(ctx, actor, dto.CreateCategoryRequest{Name: name, Position: i})
		if err != nil {
			return err
		}
		categories[name] = resp.ID
	}

	dishes := []demoDish{
		{"Thieboudienne", "Mains", "4500", map[string]string{"Rice": "0.25", "Thiof": "0.3", "Onion": "0.1"}},
		{"Yassa Poulet", "Mains", "3500", map[string]string{"Chicken": "0.35", "Onion": "0.2", "Rice": "0.2"}},
		{"Bissap", "Drinks", "1000", map[string]string{"Bissap flowers": "0.02", "Sugar": "0.03"}},
	}
	for _, d := range dishes {
		catID := categories[d.category]
		item, err := menu.CreateItem(ctx, actor, dto.CreateMenuItemRequest{
			Name:       d.name,
			CategoryID: &catID,
			Price:      decimal.RequireFromString(d.price),
		})
		if err != nil {
			return err
		}
		req := dto.SetRecipeRequest{}
		for name, qty := range d.recipe {
			req.Lines = append(req.Lines, dto.RecipeLineRequest{
				IngredientID: ingredients[name],
				Quantity:     decimal.RequireFromString(qty),
			})
		}
		if _, err := menu.SetRecipe(ctx, actor, uuid.MustParse(item.ID), req); err != nil {
			return err
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
