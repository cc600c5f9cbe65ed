package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("FLASH_DURATION", "")
	t.Setenv("STORE_DRIVER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FlashDuration != 3*time.Second {
		t.Errorf("FlashDuration = %v, want 3s", cfg.FlashDuration)
	}
	if cfg.StoreDriver != "firestore" {
		t.Errorf("StoreDriver = %q", cfg.StoreDriver)
	}
	if cfg.JWTRefreshExpiry != 168*time.Hour {
		t.Errorf("JWTRefreshExpiry = %v", cfg.JWTRefreshExpiry)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eventcenter.yaml")
	yml := `
server:
  port: "9000"
store:
  driver: memory
  mirror_driver: memory
notify:
  kafka_brokers: ["k1:9092"]
  telegram_chat_id: 42
flash_duration: 5s
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("MIRROR_DRIVER", "postgres")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	t.Setenv("FLASH_DURATION", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want file value 9000", cfg.Port)
	}
	if cfg.StoreDriver != "memory" {
		t.Errorf("StoreDriver = %q, want memory", cfg.StoreDriver)
	}
	if cfg.MirrorDriver != "postgres" {
		t.Errorf("MirrorDriver = %q, env should win", cfg.MirrorDriver)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "k1:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if cfg.TelegramChatID != 42 {
		t.Errorf("TelegramChatID = %d", cfg.TelegramChatID)
	}
	if cfg.FlashDuration != 5*time.Second {
		t.Errorf("FlashDuration = %v", cfg.FlashDuration)
	}
}

func TestLoadBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(path, []byte("server: [unclosed"), 0o600)
	t.Setenv("CONFIG_FILE", path)
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("APPLE_CLIENT_IDS", " com.a , ,com.b")
	got := getEnvList("APPLE_CLIENT_IDS", nil)
	if len(got) != 2 || got[0] != "com.a" || got[1] != "com.b" {
		t.Fatalf("got %v", got)
	}
}
