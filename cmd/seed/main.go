// Seeds the schema and a small sample catalog for local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/ImmigreatAI/Course-site-sub000/internal/config"
	pg "github.com/ImmigreatAI/Course-site-sub000/internal/infra/db/postgres"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id              TEXT PRIMARY KEY,
		provider_id     TEXT NOT NULL UNIQUE,
		email           TEXT NOT NULL,
		full_name       TEXT NOT NULL DEFAULT '',
		learnworlds_id  TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS products (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		is_bundle   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE TABLE IF NOT EXISTS plans (
		product_id      TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		label           TEXT NOT NULL,
		category        TEXT NOT NULL,
		monetary        TEXT NOT NULL,
		price           BIGINT NOT NULL,
		enrollment_id   TEXT NOT NULL,
		stripe_price_id TEXT NOT NULL,
		access_url      TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (product_id, label)
	);`,
	`CREATE TABLE IF NOT EXISTS bundle_members (
		bundle_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		member_id TEXT NOT NULL,
		position  INT NOT NULL DEFAULT 0,
		PRIMARY KEY (bundle_id, member_id)
	);`,
	`CREATE TABLE IF NOT EXISTS purchases (
		id                TEXT PRIMARY KEY,
		user_id           TEXT NOT NULL REFERENCES users(id),
		session_id        TEXT NOT NULL UNIQUE,
		payment_intent_id TEXT NOT NULL DEFAULT '',
		amount            BIGINT NOT NULL,
		currency          TEXT NOT NULL,
		status            TEXT NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL,
		completed_at      TIMESTAMPTZ
	);`,
	`CREATE TABLE IF NOT EXISTS purchase_items (
		id            TEXT PRIMARY KEY,
		purchase_id   TEXT NOT NULL REFERENCES purchases(id) ON DELETE CASCADE,
		line_id       TEXT NOT NULL,
		product_id    TEXT NOT NULL,
		product_name  TEXT NOT NULL,
		plan_label    TEXT NOT NULL,
		category      TEXT NOT NULL,
		price         BIGINT NOT NULL,
		enrollment_id TEXT NOT NULL,
		access_url    TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL,
		UNIQUE (purchase_id, line_id)
	);`,
	`CREATE TABLE IF NOT EXISTS enrollments (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL REFERENCES users(id),
		purchase_item_id TEXT NOT NULL UNIQUE REFERENCES purchase_items(id),
		product_id       TEXT NOT NULL,
		product_name     TEXT NOT NULL,
		access_url       TEXT NOT NULL DEFAULT '',
		plan_label       TEXT NOT NULL,
		external_id      TEXT NOT NULL,
		status           TEXT NOT NULL,
		enrolled_at      TIMESTAMPTZ NOT NULL,
		expires_at       TIMESTAMPTZ NOT NULL,
		last_accessed_at TIMESTAMPTZ
	);`,
	`CREATE INDEX IF NOT EXISTS idx_enrollments_user ON enrollments (user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_purchases_user ON purchases (user_id);`,
}

type seedPlan struct {
	label         string
	category      string
	monetary      string
	price         int64
	enrollmentID  string
	stripePriceID string
	accessURL     string
}

type seedProduct struct {
	id          string
	name        string
	description string
	isBundle    bool
	members     []string
	plans       []seedPlan
}

var catalog = []seedProduct{
	{
		id:          "ultimate-eb1a-roadmap",
		name:        "Ultimate EB1A Roadmap",
		description: "Step-by-step petition strategy for the EB1A category.",
		plans: []seedPlan{
			{"7day", "course", "paid", 4900, "lw_eb1a_roadmap", "price_1RoadmapTrial", "https://school.example.com/course/eb1a-roadmap"},
			{"6mo", "course", "paid", 19900, "lw_eb1a_roadmap", "price_1RoadmapFull", "https://school.example.com/course/eb1a-roadmap"},
		},
	},
	{
		id:          "rfe-response-masterclass",
		name:        "RFE Response Masterclass",
		description: "Drafting winning responses to requests for evidence.",
		plans: []seedPlan{
			{"6mo", "course", "paid", 14900, "lw_rfe_masterclass", "price_1RfeFull", "https://school.example.com/course/rfe-masterclass"},
		},
	},
	{
		id:          "immigration-basics",
		name:        "Immigration Basics",
		description: "Free orientation to the employment-based process.",
		plans: []seedPlan{
			{"6mo", "course", "free", 0, "lw_imm_basics", "price_1BasicsFree", "https://school.example.com/course/immigration-basics"},
		},
	},
	{
		id:          "eb1a-bundle",
		name:        "EB1A Success Bundle",
		description: "The roadmap course plus the RFE masterclass at a bundle price.",
		isBundle:    true,
		members:     []string{"ultimate-eb1a-roadmap", "rfe-response-masterclass"},
		plans: []seedPlan{
			{"6mo", "bundle", "paid", 29900, "lw_eb1a_bundle", "price_1BundleFull", "https://school.example.com/bundle/eb1a"},
		},
	},
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
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

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalf("apply schema: %v", err)
		}
	}
	fmt.Println("schema applied")

	var existing int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&existing); err != nil {
		log.Fatalf("count products: %v", err)
	}
	if existing > 0 {
		fmt.Printf("%d products already present. No changes.\n", existing)
		return
	}

	for _, p := range catalog {
		if _, err := pool.Exec(ctx,
			`INSERT INTO products (id, name, description, is_bundle) VALUES ($1,$2,$3,$4)`,
			p.id, p.name, p.description, p.isBundle,
		); err != nil {
			log.Fatalf("seed product %q: %v", p.id, err)
		}
		for _, plan := range p.plans {
			if _, err := pool.Exec(ctx,
				`INSERT INTO plans (product_id, label, category, monetary, price, enrollment_id, stripe_price_id, access_url)
				 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
				p.id, plan.label, plan.category, plan.monetary, plan.price, plan.enrollmentID, plan.stripePriceID, plan.accessURL,
			); err != nil {
				log.Fatalf("seed plan %s/%s: %v", p.id, plan.label, err)
			}
		}
		for i, member := range p.members {
			if _, err := pool.Exec(ctx,
				`INSERT INTO bundle_members (bundle_id, member_id, position) VALUES ($1,$2,$3)`,
				p.id, member, i,
			); err != nil {
				log.Fatalf("seed bundle member %s/%s: %v", p.id, member, err)
			}
		}
		fmt.Printf("seeded: %s (%d plans)\n", p.id, len(p.plans))
	}

	fmt.Println("✅ Seeding complete.")
}
