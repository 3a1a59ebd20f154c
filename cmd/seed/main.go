package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"dating-swipe-subscription/internal/config"
	"dating-swipe-subscription/internal/domain"
	"dating-swipe-subscription/internal/domain/model"
	pg "dating-swipe-subscription/internal/infra/db/postgres"
	"dating-swipe-subscription/internal/usecase"
)

const schema = `
CREATE TABLE IF NOT EXISTS subscription_records (
    user_id                 TEXT PRIMARY KEY,
    current_plan_id         TEXT NOT NULL,
    is_premium              BOOLEAN NOT NULL DEFAULT FALSE,
    is_active               BOOLEAN NOT NULL DEFAULT FALSE,
    period_start            TIMESTAMPTZ,
    period_end              TIMESTAMPTZ,
    swipes_limit            INTEGER NOT NULL,
    swipes_used_today       INTEGER NOT NULL DEFAULT 0,
    last_reset_day          TEXT NOT NULL,
    applied_transaction_ids TEXT[] NOT NULL DEFAULT '{}',
    created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_subscription_records_premium
    ON subscription_records (is_premium, period_end);

CREATE TABLE IF NOT EXISTS plans (
    id                TEXT PRIMARY KEY,
    name              TEXT NOT NULL,
    display_name      TEXT NOT NULL,
    description       TEXT NOT NULL DEFAULT '',
    price_minor_units BIGINT NOT NULL,
    currency          TEXT NOT NULL,
    duration_days     INTEGER NOT NULL,
    swipe_limit       INTEGER NOT NULL,
    features          TEXT[] NOT NULL DEFAULT '{}',
    active            BOOLEAN NOT NULL DEFAULT TRUE,
    popular           BOOLEAN NOT NULL DEFAULT FALSE,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS transactions (
    id                 TEXT PRIMARY KEY,
    user_id            TEXT NOT NULL,
    plan_id            TEXT NOT NULL,
    amount_minor_units BIGINT NOT NULL,
    currency           TEXT NOT NULL,
    provider           TEXT NOT NULL,
    provider_order_id  TEXT NOT NULL,
    status             TEXT NOT NULL,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at       TIMESTAMPTZ,
    meta               JSONB,
    UNIQUE (provider, provider_order_id)
);
CREATE INDEX IF NOT EXISTS idx_transactions_user
    ON transactions (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_pending
    ON transactions (created_at) WHERE status = 'pending';

CREATE TABLE IF NOT EXISTS app_settings (
    id                   INTEGER PRIMARY KEY,
    free_tier_swipe_limit INTEGER NOT NULL,
    subscription_enabled BOOLEAN NOT NULL,
    active_provider      TEXT NOT NULL,
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("create schema: %v", err)
	}
	fmt.Println("schema ready")

	settingsRepo := pg.NewSettingsRepo(pool)
	if _, err := settingsRepo.Get(ctx, nil); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Fatalf("settings: %v", err)
		}
		if err := settingsRepo.Save(ctx, nil, model.DefaultSettings()); err != nil {
			log.Fatalf("seed settings: %v", err)
		}
		fmt.Println("default settings seeded")
	}

	planRepo := pg.NewPlanRepo(pool)
	planUC := usecase.NewPlanUseCase(planRepo)

	// If plans already exist, do nothing
	plans, err := planUC.ListAll(ctx)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (days=%d, limit=%d, price=%d %s)\n", p.Name, p.DurationDays, p.SwipeLimit, p.PriceMinorUnits, p.Currency)
		}
		return
	}

	// Seed starter plans for testing the payment flow
	seed := []struct {
		ID      string
		Name    string
		Display string
		Price   int64
		Days    int
		Limit   int
		Popular bool
	}{
		{"weekly", "weekly", "Premium Weekly", 19_900, 7, 100, false},
		{"monthly", "monthly", "Premium Monthly", 49_900, 30, 200, true},
		{"unlimited", "unlimited", "Premium Unlimited", 99_900, 30, model.UnlimitedSwipes, false},
	}

	for _, s := range seed {
		p, err := planUC.Create(ctx, s.ID, s.Name, s.Display, s.Price, "INR", s.Days, s.Limit,
			[]string{"See who likes you", "Rewind last swipe"})
		if err != nil {
			log.Fatalf("create plan %q: %v", s.ID, err)
		}
		if s.Popular {
			p.Popular = true
			if err := planUC.Update(ctx, p); err != nil {
				log.Fatalf("mark plan %q popular: %v", s.ID, err)
			}
		}
		fmt.Printf("seeded: %s (days=%d, limit=%d, price=%d %s)\n", p.DisplayName, p.DurationDays, p.SwipeLimit, p.PriceMinorUnits, p.Currency)
	}

	fmt.Println("✅ Seeding complete.")
}
