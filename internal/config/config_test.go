package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Budget.Limit != 50 {
		t.Fatalf("Budget.Limit = %d, want 50", cfg.Budget.Limit)
	}
	if cfg.Budget.ReaperInterval != 5*time.Second {
		t.Fatalf("Budget.ReaperInterval = %v, want 5s", cfg.Budget.ReaperInterval)
	}
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("NOTIFYD_BUDGET_LIMIT", "7")
	t.Setenv("NOTIFYD_REDIS_ADDR", "redis.internal:6380")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Budget.Limit != 7 {
		t.Fatalf("Budget.Limit = %d, want 7", cfg.Budget.Limit)
	}
	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Fatalf("Redis.Addr = %q, want redis.internal:6380", cfg.Redis.Addr)
	}
}

func TestValidateRejectsBadLimit(t *testing.T) {
	cfg := &Config{Budget: BudgetConfig{Limit: 0, ReaperInterval: time.Second}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for limit 0")
	}
}

func TestValidateRejectsNonPositiveInterval(t *testing.T) {
	cfg := &Config{Budget: BudgetConfig{Limit: 1, ReaperInterval: 0}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for zero reaper interval")
	}
}

