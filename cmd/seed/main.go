package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})
	_ = godotenv.Load()

	name := flag.String("product", "Demo Tee", "product name")
	price := flag.Int64("price-cents", 10000, "unit price in cents")
	discount := flag.String("discount", "10", "discount percent")
	sizes := flag.String("sizes", "S,M,L", "comma separated sizes")
	colors := flag.String("colors", "", "comma separated colors")
	stock := flag.Int("stock", 25, "initial stock")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		logg.Warn(ctx, "refusing to seed a production environment")
		os.Exit(1)
	}

	pct, err := decimal.NewFromString(*discount)
	if err != nil {
		logg.Error(ctx, "invalid discount", err)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var sessions sessionOpener
	if cfg.FeatureFlags.SessionCheck {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		manager, err := session.NewManager(redisClient)
		if err != nil {
			logg.Error(ctx, "failed to create session manager", err)
			os.Exit(1)
		}
		sessions = manager
	}

	result, err := newSeeder(dbClient.DB(), cfg.JWT, sessions).Run(ctx, seedOptions{
		ProductName:     *name,
		PriceCents:      *price,
		DiscountPercent: pct,
		Sizes:           splitList(*sizes),
		Colors:          splitList(*colors),
		Stock:           *stock,
	})
	if err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logg.Error(ctx, "failed to write result", err)
		os.Exit(1)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
