// Command seed-db loads a demo dataset (departments, catalog, discount
// configuration, users, stock) into the database for local development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tradegate/orderdesk/internal/repository"
)

type fixture struct {
	Departments []struct {
		ID   string `json:"id"`
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"departments"`
	ProductGroups []struct {
		ID   string `json:"id"`
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"product_groups"`
	Products []struct {
		ID      string          `json:"id"`
		Code    string          `json:"code"`
		Name    string          `json:"name"`
		GroupID string          `json:"group_id"`
		Price   decimal.Decimal `json:"price"`
		Weight  decimal.Decimal `json:"weight"`
		Volume  decimal.Decimal `json:"volume"`
	} `json:"products"`
	DiscountProfiles []struct {
		ID        string `json:"id"`
		Code      string `json:"code"`
		Name      string `json:"name"`
		Discounts []struct {
			GroupID string          `json:"group_id"`
			Percent decimal.Decimal `json:"percent"`
		} `json:"discounts"`
	} `json:"discount_profiles"`
	LegacyCodeDiscounts []struct {
		Code    string          `json:"code"`
		GroupID string          `json:"group_id"`
		Percent decimal.Decimal `json:"percent"`
	} `json:"legacy_code_discounts"`
	Users []struct {
		ID                string `json:"id"`
		Name              string `json:"name"`
		Email             string `json:"email"`
		Role              string `json:"role"`
		Confirmed         bool   `json:"confirmed"`
		ManagerID         string `json:"manager_id"`
		ShopID            string `json:"shop_id"`
		DefaultBranchID   string `json:"default_branch_id"`
		DiscountProfileID string `json:"discount_profile_id"`
		SpecialDiscounts  []struct {
			GroupID string          `json:"group_id"`
			Percent decimal.Decimal `json:"percent"`
		} `json:"special_discounts"`
	} `json:"users"`
	Inventory []struct {
		DepartmentID string          `json:"department_id"`
		ProductID    string          `json:"product_id"`
		Quantity     decimal.Decimal `json:"quantity"`
	} `json:"inventory"`
}

func main() {
	var (
		databaseURL string
		fixtureFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&fixtureFile, "fixture-file", "db/seed/fixture.json", "path to seed fixture JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, fixtureFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, fixtureFile string) error {
	slog.Info("reading fixture file", slog.String("path", fixtureFile))

	data, err := os.ReadFile(fixtureFile)
	if err != nil {
		return errors.Wrap(err, "read fixture file")
	}

	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return errors.Wrap(err, "parse fixture JSON")
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	steps := []struct {
		name string
		fn   func(context.Context, *pgxpool.Pool, *fixture) error
	}{
		{"departments", seedDepartments},
		{"product groups", seedProductGroups},
		{"products", seedProducts},
		{"discount profiles", seedDiscountProfiles},
		{"legacy code discounts", seedLegacyCodeDiscounts},
		{"users", seedUsers},
		{"inventory", seedInventory},
	}
	for _, s := range steps {
		if err := s.fn(ctx, pool, &fx); err != nil {
			return errors.Wrap(err, "seed "+s.name)
		}
	}

	return nil
}

func seedDepartments(ctx context.Context, pool *pgxpool.Pool, fx *fixture) error {
	slog.Info("upserting departments", slog.Int("count", len(fx.Departments)))

	for _, d := range fx.Departments {
		_, err := pool.Exec(ctx, `
			INSERT INTO departments (id, code, name)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, name = EXCLUDED.name`,
			d.ID, d.Code, d.Name,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert department %s", d.ID)
		}
	}
	return nil
}

func seedProductGroups(ctx context.Context, pool *pgxpool.Pool, fx *fixture) error {
	slog.Info("upserting product groups", slog.Int("count", len(fx.ProductGroups)))

	for _, g := range fx.ProductGroups {
		_, err := pool.Exec(ctx, `
			INSERT INTO product_groups (id, code, name)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, name = EXCLUDED.name`,
			g.ID, g.Code, g.Name,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product group %s", g.ID)
		}
	}
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, fx *fixture) error {
	slog.Info("upserting products", slog.Int("count", len(fx.Products)))

	for _, p := range fx.Products {
		_, err := pool.Exec(ctx, `
			INSERT INTO products (id, code, name, group_id, price, weight, volume)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				code = EXCLUDED.code,
				name = EXCLUDED.name,
				group_id = EXCLUDED.group_id,
				price = EXCLUDED.price,
				weight = EXCLUDED.weight,
				volume = EXCLUDED.volume`,
			p.ID, p.Code, p.Name, p.GroupID, p.Price, p.Weight, p.Volume,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
	}
	return nil
}

func seedDiscountProfiles(ctx context.Context, pool *pgxpool.Pool, fx *fixture) error {
	slog.Info("upserting discount profiles", slog.Int("count", len(fx.DiscountProfiles)))

	for _, p := range fx.DiscountProfiles {
		_, err := pool.Exec(ctx, `
			INSERT INTO discount_profiles (id, code, name)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET
				code = EXCLUDED.code,
				name = EXCLUDED.name`,
			p.ID, p.Code, p.Name,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert discount profile %s", p.ID)
		}

		for _, d := range p.Discounts {
			_, err := pool.Exec(ctx, `
				INSERT INTO profile_group_discounts (profile_id, group_id, percent)
				VALUES ($1, $2, $3)
				ON CONFLICT (profile_id, group_id) DO UPDATE SET percent = EXCLUDED.percent`,
				p.ID, d.GroupID, d.Percent,
			)
			if err != nil {
				return errors.Wrapf(err, "upsert profile discount %s/%s", p.ID, d.GroupID)
			}
		}
	}
	return nil
}

func seedLegacyCodeDiscounts(ctx context.Context, pool *pgxpool.Pool, fx *fixture) error {
	slog.Info("upserting legacy code discounts", slog.Int("count", len(fx.LegacyCodeDiscounts)))

	for _, d := range fx.LegacyCodeDiscounts {
		_, err := pool.Exec(ctx, `
			INSERT INTO legacy_code_discounts (code, group_id, percent)
			VALUES ($1, $2, $3)
			ON CONFLICT (code, group_id) DO UPDATE SET percent = EXCLUDED.percent`,
			d.Code, d.GroupID, d.Percent,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert legacy discount %s/%s", d.Code, d.GroupID)
		}
	}
	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, fx *fixture) error {
	slog.Info("upserting users", slog.Int("count", len(fx.Users)))

	for _, u := range fx.Users {
		_, err := pool.Exec(ctx, `
			INSERT INTO users (id, name, email, role, confirmed, manager_id, shop_id, default_branch_id, discount_profile_id)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''))
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				email = EXCLUDED.email,
				role = EXCLUDED.role,
				confirmed = EXCLUDED.confirmed,
				manager_id = EXCLUDED.manager_id,
				shop_id = EXCLUDED.shop_id,
				default_branch_id = EXCLUDED.default_branch_id,
				discount_profile_id = EXCLUDED.discount_profile_id`,
			u.ID, u.Name, u.Email, u.Role, u.Confirmed,
			u.ManagerID, u.ShopID, u.DefaultBranchID, u.DiscountProfileID,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert user %s", u.ID)
		}

		for _, d := range u.SpecialDiscounts {
			_, err := pool.Exec(ctx, `
				INSERT INTO user_special_discounts (id, user_id, group_id, percent)
				VALUES ($1, $2, $3, $4)`,
				uuid.NewString(), u.ID, d.GroupID, d.Percent,
			)
			if err != nil {
				return errors.Wrapf(err, "insert special discount %s/%s", u.ID, d.GroupID)
			}
		}
	}
	return nil
}

func seedInventory(ctx context.Context, pool *pgxpool.Pool, fx *fixture) error {
	slog.Info("inserting inventory snapshots", slog.Int("count", len(fx.Inventory)))

	now := time.Now().UTC()
	for _, s := range fx.Inventory {
		_, err := pool.Exec(ctx, `
			INSERT INTO inventory_snapshots (id, department_id, product_id, quantity, captured_at)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), s.DepartmentID, s.ProductID, s.Quantity, now,
		)
		if err != nil {
			return errors.Wrapf(err, "insert snapshot %s/%s", s.DepartmentID, s.ProductID)
		}
	}
	return nil
}
