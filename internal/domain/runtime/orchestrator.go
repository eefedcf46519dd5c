package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/microshell/runtime/internal/infrastructure/logging"
	"github.com/microshell/runtime/internal/infrastructure/monitoring"
	"github.com/microshell/runtime/internal/shared/types"
)

// OverrideStoreKey is the reserved persisted-storage key holding a
// JSON-encoded override layer, written by developer tooling.
const OverrideStoreKey = "devtools:component-overrides"

// ErrMissingSystemCode is returned by Init when no system code is provided.
var ErrMissingSystemCode = errors.New("system code is required")

// Registry resolves and holds the component set for a system.
type Registry interface {
	Fetch(ctx context.Context, systemCode string) error
	ApplyOverrides(patch map[string]types.AssetLocation)
	Components() []string
	ComponentInfo(name string) (types.AssetLocation, bool)
}

// Styler applies component stylesheets to the host document.
type Styler interface {
	AddStyling(ctx context.Context, url string) error
}

// Loader resolves component scripts into executable modules.
type Loader interface {
	Init(ctx context.Context) error
	ImportModule(ctx context.Context, url string) (*types.ComponentModule, error)
}

// OverrideStore reads persisted local state.
type OverrideStore interface {
	Get(key string) (string, bool, error)
}

// Orchestrator coordinates registry resolution, override layering, and
// per-component loading. All collaborators are injected; the orchestrator
// holds no cross-call state, so one instance may serve multiple Init calls.
type Orchestrator struct {
	registry Registry
	styler   Styler
	loader   Loader
	store    OverrideStore
	log      *logging.Logger
	metrics  *monitoring.Metrics
}

// New creates an orchestrator with the given collaborators.
func New(registry Registry, styler Styler, loader Loader, store OverrideStore, log *logging.Logger) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		styler:   styler,
		loader:   loader,
		store:    store,
		log:      log,
	}
}

// WithMetrics adds metrics tracking to the orchestrator.
func (o *Orchestrator) WithMetrics(metrics *monitoring.Metrics) *Orchestrator {
	o.metrics = metrics
	return o
}

// Init runs one full initialization pass: fetch the registry for the system,
// apply caller-supplied then persisted overrides (persisted wins), and load
// every registered component. Init returns after every component load has
// settled; individual load failures never surface here. The only errors Init
// returns are a missing system code, a registry fetch failure, and a loader
// initialization failure.
func (o *Orchestrator) Init(ctx context.Context, opts types.InitOptions) error {
	if strings.TrimSpace(opts.SystemCode) == "" {
		return ErrMissingSystemCode
	}

	if err := o.registry.Fetch(ctx, opts.SystemCode); err != nil {
		return err
	}

	if len(opts.Overrides) > 0 {
		o.applyOverrideLayer(opts.Overrides, "caller")
	}
	o.applyPersistedOverrides()

	if err := o.loader.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize module loader: %w", err)
	}

	o.LoadAll(ctx)
	return nil
}

// LoadAll loads every component in the current registry snapshot. Loads run
// concurrently and in isolation; LoadAll returns once all of them have
// settled.
func (o *Orchestrator) LoadAll(ctx context.Context) {
	names := o.registry.Components()

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			o.Load(ctx, name)
		}(name)
	}
	wg.Wait()
}

// Load loads a single component: styling first, then the module and its
// lifecycle hooks (init before mount). Every failure is reported against the
// component and swallowed; Load never panics or returns an error.
func (o *Orchestrator) Load(ctx context.Context, name string) {
	info, ok := o.registry.ComponentInfo(name)
	if !ok {
		o.report(fmt.Sprintf("No info found for component %s", name), nil)
		o.metrics.RecordComponentLoad(monitoring.LoadOutcomeSkipped)
		return
	}

	if missing := missingAssets(info); missing != "" {
		o.report(fmt.Sprintf("Missing %s for component %s", missing, name), nil)
		o.metrics.RecordComponentLoad(monitoring.LoadOutcomeSkipped)
		return
	}

	// Styling starts without blocking module resolution; its outcome is
	// still collected below so the failure stays inside this component's
	// boundary.
	styled := make(chan error, 1)
	go func() {
		styled <- o.addStyling(ctx, info.Stylesheet)
	}()

	failed := !o.runLifecycle(ctx, name, info.Script)

	if err := <-styled; err != nil {
		o.report(fmt.Sprintf("Failed to apply styling for component %s", name), err)
		failed = true
	}

	if failed {
		o.metrics.RecordComponentLoad(monitoring.LoadOutcomeFailed)
	} else {
		o.metrics.RecordComponentLoad(monitoring.LoadOutcomeLoaded)
	}
}

// runLifecycle imports the component module and drives its hooks. Returns
// false if any step failed.
func (o *Orchestrator) runLifecycle(ctx context.Context, name, scriptURL string) bool {
	module, err := o.loader.ImportModule(ctx, scriptURL)
	if err != nil {
		o.report(fmt.Sprintf("Failed to load module for component %s", name), err)
		return false
	}

	if module.Init != nil {
		if err := module.Init(ctx); err != nil {
			o.report(fmt.Sprintf("Init hook failed for component %s", name), err)
			o.metrics.RecordHookError("init")
			return false
		}
	}
	if module.Mount != nil {
		if err := module.Mount(ctx); err != nil {
			o.report(fmt.Sprintf("Mount hook failed for component %s", name), err)
			o.metrics.RecordHookError("mount")
			return false
		}
	}
	return true
}

// addStyling guards the styling collaborator against panics so a misbehaving
// injector cannot escape the component boundary.
func (o *Orchestrator) addStyling(ctx context.Context, url string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("styling panicked: %v", r)
		}
	}()
	return o.styler.AddStyling(ctx, url)
}

// applyOverrideLayer normalizes one override layer and patches the registry.
// Invalid entries are reported per component and dropped from the patch.
func (o *Orchestrator) applyOverrideLayer(layer types.OverrideLayer, source string) {
	patch := make(map[string]types.AssetLocation, len(layer))
	for name, entry := range layer {
		if entry.Invalid {
			o.report(fmt.Sprintf("Invalid override entry for component %s", name), nil)
			continue
		}
		patch[name] = entry.Location()
	}
	if len(patch) == 0 {
		return
	}

	o.registry.ApplyOverrides(patch)
	o.log.Debug("Applied override layer",
		zap.String("source", source),
		zap.Int("components", len(patch)),
	)
}

// applyPersistedOverrides reads the reserved storage key and applies it as
// the final override layer. A malformed payload is skipped with a warning:
// it is a stale local cache, and the init pass should survive it.
func (o *Orchestrator) applyPersistedOverrides() {
	raw, ok, err := o.store.Get(OverrideStoreKey)
	if err != nil {
		o.log.Warn("Failed to read persisted overrides", zap.Error(err))
		return
	}
	if !ok || raw == "" {
		return
	}

	var layer types.OverrideLayer
	if err := json.Unmarshal([]byte(raw), &layer); err != nil {
		o.log.Warn("Ignoring malformed persisted overrides", zap.Error(err))
		return
	}
	o.applyOverrideLayer(layer, "persisted")
}

// report sends a contained failure to the logging sink.
func (o *Orchestrator) report(message string, err error) {
	if err != nil {
		o.log.Error(message, zap.Error(err))
		return
	}
	o.log.Error(message)
}

// missingAssets names the absent asset URLs for an incomplete location,
// script noted before stylesheet.
func missingAssets(info types.AssetLocation) string {
	switch {
	case info.Script == "" && info.Stylesheet == "":
		return "JS and CSS URLs"
	case info.Script == "":
		return "JS URL"
	case info.Stylesheet == "":
		return "CSS URL"
	default:
		return ""
	}
}
