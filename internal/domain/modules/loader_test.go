package modules

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/microshell/runtime/internal/infrastructure/httpx"
)

func newTestLoader(t *testing.T, scripts map[string]string) (*Loader, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		script, ok := scripts[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/javascript")
		w.Write([]byte(script))
	}))
	t.Cleanup(srv.Close)

	loader := NewLoader(httpx.New(httpx.Options{Timeout: 5 * time.Second}), time.Second, 0)
	if err := loader.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return loader, srv.URL
}

func TestImportModuleRequiresInit(t *testing.T) {
	loader := NewLoader(httpx.New(httpx.Options{}), time.Second, 0)

	if _, err := loader.ImportModule(context.Background(), "http://unused/mod.js"); err != ErrNotInitialized {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestImportModuleWithBothHooks(t *testing.T) {
	loader, base := newTestLoader(t, map[string]string{
		"/widget.js": `
			var initialized = false;
			runtime.register({
				init: function() { initialized = true; },
				mount: function() {
					if (!initialized) { throw new Error("mount before init"); }
				},
			});
		`,
	})

	module, err := loader.ImportModule(context.Background(), base+"/widget.js")
	if err != nil {
		t.Fatalf("ImportModule failed: %v", err)
	}
	if module.Init == nil || module.Mount == nil {
		t.Fatal("expected both hooks to be registered")
	}

	ctx := context.Background()
	if err := module.Init(ctx); err != nil {
		t.Fatalf("init hook failed: %v", err)
	}
	if err := module.Mount(ctx); err != nil {
		t.Fatalf("mount hook failed: %v", err)
	}
}

func TestImportModuleWithoutHooks(t *testing.T) {
	loader, base := newTestLoader(t, map[string]string{
		"/plain.js": `var x = 1;`,
	})

	module, err := loader.ImportModule(context.Background(), base+"/plain.js")
	if err != nil {
		t.Fatalf("ImportModule failed: %v", err)
	}
	if module.Init != nil || module.Mount != nil {
		t.Error("module without registration should have nil hooks")
	}
}

func TestImportModuleEvaluationError(t *testing.T) {
	loader, base := newTestLoader(t, map[string]string{
		"/broken.js": `throw new Error("bad module");`,
	})

	if _, err := loader.ImportModule(context.Background(), base+"/broken.js"); err == nil {
		t.Fatal("expected evaluation error")
	}
}

func TestImportModuleCompileError(t *testing.T) {
	loader, base := newTestLoader(t, map[string]string{
		"/syntax.js": `function {`,
	})

	if _, err := loader.ImportModule(context.Background(), base+"/syntax.js"); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestImportModuleNotFound(t *testing.T) {
	loader, base := newTestLoader(t, map[string]string{})

	if _, err := loader.ImportModule(context.Background(), base+"/missing.js"); err == nil {
		t.Fatal("expected fetch error")
	}
}

func TestHookThrowReturnsError(t *testing.T) {
	loader, base := newTestLoader(t, map[string]string{
		"/angry.js": `
			runtime.register({
				mount: function() { throw new Error("mount exploded"); },
			});
		`,
	})

	module, err := loader.ImportModule(context.Background(), base+"/angry.js")
	if err != nil {
		t.Fatalf("ImportModule failed: %v", err)
	}
	if module.Init != nil {
		t.Error("init hook should be absent")
	}
	if err := module.Mount(context.Background()); err == nil {
		t.Fatal("expected mount error")
	}
}

func TestHookRejectedPromiseReturnsError(t *testing.T) {
	loader, base := newTestLoader(t, map[string]string{
		"/reject.js": `
			runtime.register({
				init: function() { return Promise.reject(new Error("nope")); },
			});
		`,
	})

	module, err := loader.ImportModule(context.Background(), base+"/reject.js")
	if err != nil {
		t.Fatalf("ImportModule failed: %v", err)
	}
	if err := module.Init(context.Background()); err == nil {
		t.Fatal("expected rejection error")
	}
}

func TestHookTimeout(t *testing.T) {
	loader, base := newTestLoader(t, map[string]string{
		"/spin.js": `
			runtime.register({
				init: function() { while (true) {} },
			});
		`,
	})
	loader.hookTimeout = 50 * time.Millisecond

	module, err := loader.ImportModule(context.Background(), base+"/spin.js")
	if err != nil {
		t.Fatalf("ImportModule failed: %v", err)
	}

	start := time.Now()
	err = module.Init(context.Background())
	if err == nil {
		t.Fatal("expected timeout interrupt")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("interrupt took too long")
	}
}

func TestFetchLimit(t *testing.T) {
	loader, base := newTestLoader(t, map[string]string{
		"/big.js": `var filler = "` + strings.Repeat("a", 64) + `";`,
	})
	loader.fetchLimit = 16

	if _, err := loader.ImportModule(context.Background(), base+"/big.js"); err == nil {
		t.Fatal("expected size limit error")
	}
}
