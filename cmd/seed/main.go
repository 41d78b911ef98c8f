package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"cafe-be/internal/config"
	"cafe-be/internal/db"
	"cafe-be/internal/logger"
	"cafe-be/internal/user"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hashPassword = user.HashPassword

type seedUser struct {
	username string
	email    string
	role     user.Role
}

var seedUsers = []seedUser{
	{"admin", "admin@digitalcafe.com", user.RoleAdmin},
	{"owner", "owner@digitalcafe.com", user.RoleCafeOwner},
	{"chef", "chef@digitalcafe.com", user.RoleChef},
	{"waiter", "waiter@digitalcafe.com", user.RoleWaiter},
	{"customer", "customer@digitalcafe.com", user.RoleCustomer},
}

var seedTables = []struct {
	number   string
	capacity int
}{
	{"T1", 2},
	{"T2", 4},
	{"T3", 6},
}

var seedMenu = []struct {
	name  string
	price string
}{
	{"Espresso", "120.00"},
	{"Cappuccino", "180.00"},
	{"Masala Chai", "90.00"},
	{"Veg Sandwich", "150.00"},
	{"Chocolate Brownie", "130.00"},
}

func main() {
	password := flag.String("password", "admin123", "password for every seeded account")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the printed access tokens")
	flag.Parse()

	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv, cfg.LogLevel)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	if err := seed(context.Background(), database, cfg.JWTSecret, *password, *tokenTTL, os.Stdout); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

// seed creates the default accounts, one cafe owned by the seeded owner, its
// tables and its menu. It does nothing when the admin account already exists.
func seed(ctx context.Context, database *sql.DB, secret, password string, ttl time.Duration, out io.Writer) error {
	var exists bool
	if err := database.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, "admin",
	).Scan(&exists); err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if exists {
		logger.L().Info("Admin user already exists, skipping seed")
		return nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	users := make([]user.User, 0, len(seedUsers))
	var cafeID int64

	err = db.WithTx(ctx, database, nil, func(tx *sql.Tx) error {
		for _, su := range seedUsers {
			u := user.User{
				Username:         su.username,
				Email:            su.email,
				Role:             su.role,
				Active:           true,
				EmailVerified:    true,
				ProfileCompleted: true,
			}
			if err := tx.QueryRowContext(ctx, `
				INSERT INTO users (username, email, password, role, active, email_verified, profile_completed)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id
			`, u.Username, u.Email, hash, u.Role.String(), u.Active, u.EmailVerified, u.ProfileCompleted,
			).Scan(&u.ID); err != nil {
				return fmt.Errorf("insert user %s: %w", u.Username, err)
			}
			users = append(users, u)
		}

		owner := users[1]
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO cafes (name, owner_id) VALUES ($1, $2) RETURNING id`,
			"Digital Cafe", owner.ID,
		).Scan(&cafeID); err != nil {
			return fmt.Errorf("insert cafe: %w", err)
		}

		for _, t := range seedTables {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO cafe_tables (cafe_id, table_number, capacity) VALUES ($1, $2, $3)`,
				cafeID, t.number, t.capacity,
			); err != nil {
				return fmt.Errorf("insert table %s: %w", t.number, err)
			}
		}

		for _, m := range seedMenu {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO menu_items (cafe_id, name, price) VALUES ($1, $2, $3)`,
				cafeID, m.name, decimal.RequireFromString(m.price),
			); err != nil {
				return fmt.Errorf("insert menu item %s: %w", m.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.L().Info("seed complete",
		zap.Int64("cafe_id", cafeID),
		zap.Int("users", len(users)),
		zap.Int("tables", len(seedTables)),
		zap.Int("menu_items", len(seedMenu)),
	)

	if secret == "" {
		logger.L().Warn("JWT_SECRET is empty, skipping access tokens")
		return nil
	}
	fmt.Fprintf(out, "cafe_id=%d\n", cafeID)
	for _, u := range users {
		token, err := user.GenerateJWT(secret, u, ttl)
		if err != nil {
			return fmt.Errorf("token for %s: %w", u.Username, err)
		}
		fmt.Fprintf(out, "%-8s id=%d token=%s\n", u.Username, u.ID, token)
	}
	return nil
}
