package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"github.com/noah-isme/toko-billing/internal/auth"
	"github.com/noah-isme/toko-billing/internal/credentials"
)

type product struct {
	Name     string
	Price    int64
	Discount int64
}

var demoProducts = []product{
	{"Kopi Arabika 250g", 85000, 0},
	{"Teh Melati 100g", 32000, 2000},
	{"Gula Aren Cair", 45000, 5000},
	{"Tumbler Stainless", 120000, 0},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer conn.Close(context.Background())

	tx, err := conn.Begin(ctx)
	if err != nil {
		log.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	var merchantID, storeID, userID string
	if err := tx.QueryRow(ctx,
		`INSERT INTO merchants (name, email) VALUES ($1, $2) RETURNING id`,
		"Demo Merchant", "merchant@toko.test",
	).Scan(&merchantID); err != nil {
		log.Fatalf("seed merchant: %v", err)
	}

	settings := credentials.Settings{Currency: "IDR"}
	if pk, sk, wh := os.Getenv("SEED_GATEWAY_PUBLISHABLE_KEY"), os.Getenv("SEED_GATEWAY_SECRET_KEY"), os.Getenv("SEED_GATEWAY_WEBHOOK_SECRET"); sk != "" {
		settings.Gateway = &credentials.GatewaySettings{PublishableKey: pk, SecretKey: sk, WebhookSecret: wh}
	}
	rawSettings, err := json.Marshal(settings)
	if err != nil {
		log.Fatalf("encode settings: %v", err)
	}
	if err := tx.QueryRow(ctx,
		`INSERT INTO stores (merchant_id, name, settings) VALUES ($1, $2, $3) RETURNING id`,
		merchantID, "Toko Demo", string(rawSettings),
	).Scan(&storeID); err != nil {
		log.Fatalf("seed store: %v", err)
	}

	if err := tx.QueryRow(ctx,
		`INSERT INTO users (email, name) VALUES ($1, $2)
		 ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
		"buyer@toko.test", "Demo Buyer",
	).Scan(&userID); err != nil {
		log.Fatalf("seed user: %v", err)
	}

	batch := &pgx.Batch{}
	for _, p := range demoProducts {
		batch.Queue(`INSERT INTO products (store_id, name, price, discount) VALUES ($1, $2, $3, $4)`, storeID, p.Name, p.Price, p.Discount)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		log.Fatalf("seed products: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("commit: %v", err)
	}

	fmt.Printf("merchant=%s store=%s user=%s products=%d\n", merchantID, storeID, userID, len(demoProducts))

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Println("JWT_SECRET not set, skipping dev tokens")
		return
	}
	tokens := auth.NewTokens(secret, envOr("JWT_ISSUER", "toko-billing"), envOr("JWT_AUDIENCE", "toko-billing-api"))
	tokens.TTL = 24 * time.Hour
	for label, claims := range map[string]auth.Claims{
		"buyer":    {UserID: userID},
		"merchant": {MerchantID: merchantID},
	} {
		tok, _, err := tokens.Issue(claims)
		if err != nil {
			log.Fatalf("issue %s token: %v", label, err)
		}
		fmt.Printf("%s token: %s\n", label, tok)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
