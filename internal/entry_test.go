package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/starford/wordhoard/internal/gateway"
	"github.com/starford/wordhoard/internal/store"
	"github.com/starford/wordhoard/internal/testutil"
	"github.com/starford/wordhoard/internal/wordcache"
	"github.com/starford/wordhoard/internal/wordservice"
)

func get(t *testing.T, h http.Handler, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHTTPHandlerHealth(t *testing.T) {
	st := testutil.TestStore(t)
	provider := testutil.ProviderServer(t)
	svc := wordservice.New(st, gateway.New(provider.BaseURL()), wordcache.New(10))
	h := NewHTTPHandler(NewDefaultConfig(), svc, nil)

	if w := get(t, h, "/health/live", nil); w.Code != http.StatusOK {
		t.Errorf("live status = %d", w.Code)
	}
	if w := get(t, h, "/health/ready", nil); w.Code != http.StatusOK {
		t.Errorf("ready status = %d", w.Code)
	}

	st.Close()
	w := get(t, h, "/health/ready", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status after close = %d", w.Code)
	}
}

func TestHTTPHandlerMountsAPIWithCORS(t *testing.T) {
	provider := testutil.ProviderServer(t)
	svc := wordservice.New(testutil.TestStore(t), gateway.New(provider.BaseURL()), wordcache.New(10))
	cfg := NewDefaultConfig()
	cfg.App.CORS.AllowedOrigins = []string{"https://app.example.test"}
	h := NewHTTPHandler(cfg, svc, nil)

	w := get(t, h, "/api/words", map[string]string{"Origin": "https://app.example.test"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"words":[]`) {
		t.Errorf("body = %s", w.Body.String())
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.test" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestMigrate(t *testing.T) {
	f, err := os.CreateTemp("", "wordhoard-migrate-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	cfg := NewDefaultConfig()
	cfg.Database = DatabaseConfig{Driver: store.DriverSQLite, DSN: f.Name()}

	applied, err := Migrate(context.Background(), WithConfig(cfg))
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("applied = %v", applied)
	}

	applied, err = Migrate(context.Background(), WithConfig(cfg))
	if err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("second run applied = %v", applied)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}
