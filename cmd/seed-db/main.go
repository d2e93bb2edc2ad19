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
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wearly/storefront/internal/domain/auth"
	"github.com/wearly/storefront/internal/storage/postgres"
)

type productJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	ImageURL string          `json:"imageUrl"`
}

func main() {
	var (
		databaseURL   string
		productsFile  string
		sessionToken  string
		sessionPepper string
		userID        string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&sessionToken, "session-token", "", "session token to seed (or SHOP_SEED_TOKEN env)")
	flag.StringVar(&sessionPepper, "session-pepper", "", "HMAC pepper for session token hashing (or SHOP_SESSION_PEPPER env)")
	flag.StringVar(&userID, "user-id", "demo-user", "user id the seeded session and address belong to")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if sessionToken == "" {
		sessionToken = os.Getenv("SHOP_SEED_TOKEN")
	}
	if sessionToken == "" {
		slog.Error("session token is required: set --session-token or SHOP_SEED_TOKEN")
		os.Exit(1)
	}
	if sessionPepper == "" {
		sessionPepper = os.Getenv("SHOP_SESSION_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, sessionToken, sessionPepper, userID); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, token, pepper, userID string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedSession(ctx, pool, token, pepper, userID); err != nil {
		return errors.Wrap(err, "seed session")
	}

	if err := seedAddress(ctx, pool, userID); err != nil {
		return errors.Wrap(err, "seed address")
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if _, err := pool.Exec(ctx, `
			INSERT INTO products (id, name, category, price, stock, image_url)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				category = EXCLUDED.category,
				price = EXCLUDED.price,
				stock = EXCLUDED.stock,
				image_url = EXCLUDED.image_url`,
			p.ID, p.Name, p.Category, p.Price, p.Stock, p.ImageURL,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedSession(ctx context.Context, pool *pgxpool.Pool, token, pepper, userID string) error {
	slog.Info("seeding session", slog.String("user_id", userID))

	tokenHash := auth.HashToken(token, []byte(pepper))
	expiresAt := time.Now().UTC().Add(30 * 24 * time.Hour)

	if _, err := pool.Exec(ctx, `
		INSERT INTO sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			expires_at = EXCLUDED.expires_at`,
		tokenHash, userID, expiresAt,
	); err != nil {
		return errors.Wrap(err, "upsert session")
	}

	slog.Info("upserted session", slog.Time("expires_at", expiresAt))

	return nil
}

func seedAddress(ctx context.Context, pool *pgxpool.Pool, userID string) error {
	slog.Info("seeding default address", slog.String("user_id", userID))

	// A stable id so smoke tests can reference the seeded address directly.
	id := userID + "-default-address"
	if _, err := pool.Exec(ctx, `
		INSERT INTO addresses (id, user_id, full_name, phone, line1, city, state, pin_code, country, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true)
		ON CONFLICT (id) DO NOTHING`,
		id, userID, "Demo User", "9999999999", "1 Demo Street", "Bengaluru", "Karnataka", "560001", "India",
	); err != nil {
		return errors.Wrap(err, "insert address")
	}

	slog.Info("upserted address", slog.String("id", id))

	return nil
}
