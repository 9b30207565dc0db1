package storage_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/JaimeStill/estimator/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewReturnsSystem(t *testing.T) {
	cfg := &storage.Config{
		ContainerName:    "estimates",
		ConnectionString: azuriteConnString,
	}

	sys, err := storage.New(cfg, discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if sys == nil {
		t.Fatal("New() returned nil system")
	}
}

func TestNewInvalidConnectionString(t *testing.T) {
	cfg := &storage.Config{
		ContainerName:    "estimates",
		ConnectionString: "not-a-connection-string",
	}

	if _, err := storage.New(cfg, discard()); err == nil {
		t.Fatal("expected error for invalid connection string, got nil")
	}
}

func TestNewWithoutConnectionStringUsesMemory(t *testing.T) {
	sys, err := storage.New(&storage.Config{ContainerName: "estimates"}, discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	if err := sys.Upload(ctx, "exports/s1/q.csv", strings.NewReader("a,b"), "text/csv"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if ok, _ := sys.Exists(ctx, "exports/s1/q.csv"); !ok {
		t.Error("uploaded blob does not exist")
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	sys := storage.NewMemory(discard())
	ctx := context.Background()
	key := "exports/s1/quotation.json"

	if err := sys.Upload(ctx, key, strings.NewReader(`{"total":1}`), "application/json"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	rc, err := sys.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != `{"total":1}` {
		t.Errorf("Download() = %q", data)
	}

	if err := sys.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := sys.Download(ctx, key); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Download() after delete error = %v, want ErrNotFound", err)
	}
	if err := sys.Delete(ctx, key); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"ErrNotFound", storage.ErrNotFound, "blob not found"},
		{"ErrEmptyKey", storage.ErrEmptyKey, "storage key must not be empty"},
		{"ErrInvalidKey", storage.ErrInvalidKey, "storage key contains invalid path segment"},
		{"ErrUnavailable", storage.ErrUnavailable, "blob service unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.wantMsg {
				t.Errorf("%s.Error() = %q, want %q", tt.name, tt.err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ErrNotFound maps to 404", storage.ErrNotFound, http.StatusNotFound},
		{"ErrEmptyKey maps to 400", storage.ErrEmptyKey, http.StatusBadRequest},
		{"ErrInvalidKey maps to 400", storage.ErrInvalidKey, http.StatusBadRequest},
		{"ErrUnavailable maps to 502", fmt.Errorf("upload blob k: %w", storage.ErrUnavailable), http.StatusBadGateway},
		{"wrapped ErrNotFound maps to 404", fmt.Errorf("operation failed: %w", storage.ErrNotFound), http.StatusNotFound},
		{"unknown error maps to 500", fmt.Errorf("unexpected failure"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := storage.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestKeyValidation(t *testing.T) {
	systems := map[string]storage.System{
		"memory": storage.NewMemory(discard()),
	}
	azure, err := storage.New(&storage.Config{ContainerName: "estimates", ConnectionString: azuriteConnString}, discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	systems["azure"] = azure

	ctx := context.Background()
	keys := []struct {
		key  string
		want error
	}{
		{"", storage.ErrEmptyKey},
		{"exports/../secrets", storage.ErrInvalidKey},
		{"/exports/s1/q.csv", storage.ErrInvalidKey},
		{"exports//q.csv", storage.ErrInvalidKey},
		{`exports\q.csv`, storage.ErrInvalidKey},
	}

	for name, sys := range systems {
		for _, k := range keys {
			t.Run(name+"/"+k.key, func(t *testing.T) {
				if err := sys.Upload(ctx, k.key, strings.NewReader("x"), "text/plain"); !errors.Is(err, k.want) {
					t.Errorf("Upload() error = %v, want %v", err, k.want)
				}
				if _, err := sys.Download(ctx, k.key); !errors.Is(err, k.want) {
					t.Errorf("Download() error = %v, want %v", err, k.want)
				}
				if err := sys.Delete(ctx, k.key); !errors.Is(err, k.want) {
					t.Errorf("Delete() error = %v, want %v", err, k.want)
				}
				if _, err := sys.Exists(ctx, k.key); !errors.Is(err, k.want) {
					t.Errorf("Exists() error = %v, want %v", err, k.want)
				}
			})
		}
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key  string
		want error
	}{
		{"exports/s1/quotation.csv", nil},
		{"exports/s1/v1..2.csv", nil},
		{"exports", nil},
		{"", storage.ErrEmptyKey},
		{"..", storage.ErrInvalidKey},
		{"exports/./q.csv", storage.ErrInvalidKey},
		{"exports/", storage.ErrInvalidKey},
		{"exports/q\x00.csv", storage.ErrInvalidKey},
		{"exports/q\n.csv", storage.ErrInvalidKey},
	}

	for _, tt := range tests {
		if err := storage.ValidateKey(tt.key); !errors.Is(err, tt.want) {
			t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.want)
		}
	}
}
