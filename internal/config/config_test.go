package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "POSTGRES_DSN", "REDIS_ADDR", "KAFKA_BROKERS", "KAFKA_ENABLED",
		"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "FRONTEND_URL", "OIDC_ISSUER",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Server.Port != ":8080" {
		t.Errorf("Expected default port :8080, got %s", cfg.Server.Port)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("Expected default pool size 25, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.AutoMigrate {
		t.Error("Expected auto-migrate off by default")
	}
	if !cfg.Kafka.Enabled {
		t.Error("Expected Kafka enabled by default")
	}
	if cfg.Kafka.Topics.OrderPaid != "marketplace.order.paid" {
		t.Errorf("Unexpected order.paid topic: %s", cfg.Kafka.Topics.OrderPaid)
	}
	if cfg.Stripe.FrontendURL != "http://localhost:5173" {
		t.Errorf("Unexpected frontend URL: %s", cfg.Stripe.FrontendURL)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("DB_MAX_OPEN_CONNS", "50")
	t.Setenv("DB_MAX_LIFETIME_MINUTES", "10")
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_abc")
	t.Setenv("OIDC_ISSUER", "https://issuer.example.com")

	cfg := Load()

	if cfg.Server.Port != ":9090" {
		t.Errorf("Expected port :9090, got %s", cfg.Server.Port)
	}
	if cfg.Database.MaxOpenConns != 50 {
		t.Errorf("Expected pool size 50, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxLifetime != 10*time.Minute {
		t.Errorf("Expected lifetime 10m, got %v", cfg.Database.MaxLifetime)
	}
	if !cfg.Database.AutoMigrate {
		t.Error("Expected auto-migrate on")
	}
	if cfg.Kafka.Enabled {
		t.Error("Expected Kafka disabled")
	}
	if cfg.Stripe.WebhookSecret != "whsec_abc" {
		t.Errorf("Unexpected webhook secret: %s", cfg.Stripe.WebhookSecret)
	}
	if cfg.Auth.OIDCIssuer != "https://issuer.example.com" {
		t.Errorf("Unexpected issuer: %s", cfg.Auth.OIDCIssuer)
	}
}

func TestGetEnvBoolRejectsGarbage(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "not-a-bool")
	if !getEnvBool("KAFKA_ENABLED", true) {
		t.Error("Expected fallback to default on unparseable value")
	}

	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	if getEnvInt("DB_MAX_OPEN_CONNS", 25) != 25 {
		t.Error("Expected fallback to default on unparseable int")
	}
}
