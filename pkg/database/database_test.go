package database_test

import (
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/estimator/pkg/database"
	"github.com/JaimeStill/estimator/pkg/lifecycle"
)

func TestDsn(t *testing.T) {
	tests := []struct {
		name string
		cfg  database.Config
		want string
	}{
		{
			name: "url wins",
			cfg:  database.Config{URL: "postgres://u:p@db:5432/estimator", Host: "ignored"},
			want: "postgres://u:p@db:5432/estimator",
		},
		{
			name: "empty values skipped",
			cfg:  database.Config{Host: "localhost", Port: 5432, Name: "estimator", User: "estimator"},
			want: "host=localhost port=5432 dbname=estimator user=estimator",
		},
		{
			name: "quoted password",
			cfg:  database.Config{Host: "db", Port: 5432, Name: "e", User: "u", Password: `it's a \secret`},
			want: `host=db port=5432 dbname=e user=u password='it\'s a \\secret'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Dsn(); got != tt.want {
				t.Errorf("Dsn() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFinalize(t *testing.T) {
	t.Setenv("TEST_DB_URL", "postgres://estimator@db/estimator")

	cfg := database.Config{}
	if err := cfg.Finalize(&database.Env{URL: "TEST_DB_URL"}); err != nil {
		t.Fatalf("url-only config rejected: %v", err)
	}
	if cfg.MaxOpenConns != 25 || cfg.ConnTimeoutDuration() != 5*time.Second || cfg.ApplicationName != "estimator" {
		t.Errorf("defaults not applied: %+v", cfg)
	}

	tests := []struct {
		name    string
		cfg     database.Config
		wantErr string
	}{
		{"missing name", database.Config{User: "u"}, "name required"},
		{"missing user", database.Config{Name: "n"}, "user required"},
		{"idle above open", database.Config{Name: "n", User: "u", MaxOpenConns: 2, MaxIdleConns: 4}, "exceeds"},
		{"bad lifetime", database.Config{Name: "n", User: "u", ConnMaxLifetime: "soon"}, "conn_max_lifetime"},
		{"zero timeout", database.Config{Name: "n", User: "u", ConnTimeout: "0s"}, "conn_timeout must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Finalize() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := database.Config{Host: "localhost", Name: "estimator", User: "estimator"}
	base.Merge(&database.Config{Host: "prod", Password: "secret"})

	if base.Host != "prod" || base.Password != "secret" || base.Name != "estimator" {
		t.Errorf("Merge() = %+v", base)
	}
}

func TestStartRegistersReadiness(t *testing.T) {
	cfg := database.Config{Host: "127.0.0.1", Port: 1, Name: "n", User: "u"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	cfg.ConnTimeout = "200ms"

	sys, err := database.New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	lc := lifecycle.New()
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	lc.WaitForStartup()

	if sys.Ready() {
		t.Error("ready without a reachable database")
	}
	if !slices.Contains(lc.Pending(), "database") {
		t.Errorf("pending = %v, want database listed", lc.Pending())
	}

	if err := lc.Shutdown(time.Second); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
}
