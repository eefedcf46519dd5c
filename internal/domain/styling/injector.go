// Package styling applies component stylesheets to the host document. The
// injector keeps the ordered list of applied stylesheet URLs, which the HTTP
// surface serves to the host page; application is idempotent per URL.
package styling

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-resty/resty/v2"

	"github.com/microshell/runtime/internal/infrastructure/monitoring"
)

// ErrEmptyURL is returned when AddStyling is called without a stylesheet URL.
var ErrEmptyURL = errors.New("stylesheet URL is empty")

// Injector tracks the stylesheets applied to the host document.
type Injector struct {
	mu      sync.Mutex
	applied []string
	seen    map[string]bool

	http    *resty.Client
	verify  bool
	metrics *monitoring.Metrics
}

// NewInjector creates a stylesheet injector. When verify is true and a client
// is provided, each new URL is checked to resolve before it is recorded.
func NewInjector(client *resty.Client, verify bool) *Injector {
	return &Injector{
		seen:   make(map[string]bool),
		http:   client,
		verify: verify && client != nil,
	}
}

// WithMetrics adds metrics tracking to the injector.
func (i *Injector) WithMetrics(metrics *monitoring.Metrics) *Injector {
	i.metrics = metrics
	return i
}

// AddStyling ensures the stylesheet at url is applied. Re-adding an already
// applied URL is a no-op.
func (i *Injector) AddStyling(ctx context.Context, url string) error {
	if url == "" {
		return ErrEmptyURL
	}

	i.mu.Lock()
	if i.seen[url] {
		i.mu.Unlock()
		return nil
	}
	i.seen[url] = true
	i.mu.Unlock()

	if i.verify {
		if err := i.verifyURL(ctx, url); err != nil {
			i.mu.Lock()
			delete(i.seen, url)
			i.mu.Unlock()
			return err
		}
	}

	i.mu.Lock()
	i.applied = append(i.applied, url)
	count := len(i.applied)
	i.mu.Unlock()

	i.metrics.SetStylesheetsApplied(count)
	return nil
}

// Stylesheets returns the applied stylesheet URLs in application order.
func (i *Injector) Stylesheets() []string {
	i.mu.Lock()
	defer i.mu.Unlock()

	out := make([]string, len(i.applied))
	copy(out, i.applied)
	return out
}

// Reset clears all applied stylesheets, for a fresh initialization pass.
func (i *Injector) Reset() {
	i.mu.Lock()
	i.applied = nil
	i.seen = make(map[string]bool)
	i.mu.Unlock()

	i.metrics.SetStylesheetsApplied(0)
}

func (i *Injector) verifyURL(ctx context.Context, url string) error {
	resp, err := i.http.R().SetContext(ctx).Head(url)
	if err != nil {
		return fmt.Errorf("failed to verify stylesheet %s: %w", url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("stylesheet %s returned status %d", url, resp.StatusCode())
	}
	return nil
}
