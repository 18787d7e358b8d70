package config

import (
	"reflect"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DB_DRIVER", "REDIS_URL", "REPORT_CACHE_TTL", "LOG_FORMAT", "REPORT_WORKERS", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Mode != ModeOffline || c.HTTPAddr != ":8080" || c.DBDriver != "sqlite" {
		t.Fatalf("defaults: %+v", c)
	}
	if c.RedisURL != "" || c.ReportCacheTTL != time.Hour || c.ReportWorkers != 0 {
		t.Fatalf("cache/worker defaults: %+v", c)
	}
	if c.LogFormat != "pretty" || !c.DevLogins() {
		t.Fatalf("offline defaults: %+v", c)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("REPORT_CACHE_TTL", "15m")
	t.Setenv("REPORT_WORKERS", "4")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("ENABLE_DEV_LOGINS", "true")

	c := FromEnv()
	if c.LogFormat != "json" {
		t.Fatalf("online log format: %q", c.LogFormat)
	}
	if c.ReportCacheTTL != 15*time.Minute || c.ReportWorkers != 4 {
		t.Fatalf("parsed values: %+v", c)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(c.CORSOrigins, want) {
		t.Fatalf("origins: %v", c.CORSOrigins)
	}
	if c.DevLogins() {
		t.Fatal("dev logins must stay off online")
	}
}

func TestBadNumbersFallBack(t *testing.T) {
	t.Setenv("REPORT_CACHE_TTL", "soon")
	t.Setenv("REPORT_WORKERS", "many")
	c := FromEnv()
	if c.ReportCacheTTL != time.Hour || c.ReportWorkers != 0 {
		t.Fatalf("got %+v", c)
	}
}
