package modules

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"github.com/go-resty/resty/v2"

	"github.com/microshell/runtime/internal/shared/types"
)

// ErrNotInitialized is returned when ImportModule is called before Init.
var ErrNotInitialized = errors.New("module loader not initialized")

// DefaultHookTimeout bounds a single lifecycle hook execution.
const DefaultHookTimeout = 10 * time.Second

// Loader fetches component scripts and evaluates them in isolated VMs.
type Loader struct {
	http        *resty.Client
	hookTimeout time.Duration
	fetchLimit  int64
	initialized atomic.Bool
}

// NewLoader creates a module loader using the provided HTTP client.
func NewLoader(client *resty.Client, hookTimeout time.Duration, fetchLimit int64) *Loader {
	if hookTimeout <= 0 {
		hookTimeout = DefaultHookTimeout
	}
	return &Loader{
		http:        client,
		hookTimeout: hookTimeout,
		fetchLimit:  fetchLimit,
	}
}

// Init prepares the loader. It must be called once before any ImportModule
// call; calling it again is a no-op.
func (l *Loader) Init(ctx context.Context) error {
	if l.http == nil {
		return errors.New("module loader requires an HTTP client")
	}
	l.initialized.Store(true)
	return nil
}

// ImportModule fetches the script at url, evaluates it, and returns the
// lifecycle hooks the script registered. The returned module owns its VM;
// hooks for one module must not be invoked concurrently with each other.
func (l *Loader) ImportModule(ctx context.Context, url string) (*types.ComponentModule, error) {
	if !l.initialized.Load() {
		return nil, ErrNotInitialized
	}

	source, err := l.fetchScript(ctx, url)
	if err != nil {
		return nil, err
	}

	program, err := goja.Compile(url, source, false)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module %s: %w", url, err)
	}

	vm := goja.New()
	reg := &registration{}
	if err := installRegisterGlobal(vm, reg); err != nil {
		return nil, err
	}

	if _, err := vm.RunProgram(program); err != nil {
		return nil, fmt.Errorf("failed to evaluate module %s: %w", url, err)
	}

	module := &types.ComponentModule{}
	if reg.init != nil {
		module.Init = l.hook(vm, reg.init)
	}
	if reg.mount != nil {
		module.Mount = l.hook(vm, reg.mount)
	}
	return module, nil
}

// registration collects the hooks a module script registers.
type registration struct {
	init  goja.Callable
	mount goja.Callable
}

func installRegisterGlobal(vm *goja.Runtime, reg *registration) error {
	register := func(call goja.FunctionCall) goja.Value {
		obj := call.Argument(0).ToObject(vm)
		if fn, ok := goja.AssertFunction(obj.Get("init")); ok {
			reg.init = fn
		}
		if fn, ok := goja.AssertFunction(obj.Get("mount")); ok {
			reg.mount = fn
		}
		return goja.Undefined()
	}

	runtimeObj := vm.NewObject()
	if err := runtimeObj.Set("register", register); err != nil {
		return err
	}
	return vm.Set("runtime", runtimeObj)
}

// hook wraps a registered callable as a LifecycleHook with timeout and
// context-cancellation interrupts.
func (l *Loader) hook(vm *goja.Runtime, fn goja.Callable) types.LifecycleHook {
	return func(ctx context.Context) error {
		vm.ClearInterrupt()

		done := make(chan struct{})
		timer := time.NewTimer(l.hookTimeout)
		go func() {
			select {
			case <-timer.C:
				vm.Interrupt("lifecycle hook timeout exceeded")
			case <-ctx.Done():
				vm.Interrupt("context cancelled")
			case <-done:
			}
		}()
		defer func() {
			timer.Stop()
			close(done)
		}()

		result, err := fn(goja.Undefined())
		if err != nil {
			return err
		}
		return rejectionError(result)
	}
}

// rejectionError surfaces a settled rejected promise returned by a hook.
// There is no event loop here, so a pending promise cannot make progress and
// is treated as completed.
func rejectionError(value goja.Value) error {
	if value == nil {
		return nil
	}
	promise, ok := value.Export().(*goja.Promise)
	if !ok {
		return nil
	}
	if promise.State() == goja.PromiseStateRejected {
		return fmt.Errorf("lifecycle hook rejected: %s", promise.Result().String())
	}
	return nil
}

func (l *Loader) fetchScript(ctx context.Context, url string) (string, error) {
	resp, err := l.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch module %s: %w", url, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("module %s returned status %d", url, resp.StatusCode())
	}
	body := resp.Body()
	if l.fetchLimit > 0 && int64(len(body)) > l.fetchLimit {
		return "", fmt.Errorf("module %s exceeds size limit of %d bytes", url, l.fetchLimit)
	}
	return string(body), nil
}
