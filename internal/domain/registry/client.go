package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/microshell/runtime/internal/infrastructure/httpx"
	"github.com/microshell/runtime/internal/infrastructure/monitoring"
	"github.com/microshell/runtime/internal/infrastructure/resilience"
	"github.com/microshell/runtime/internal/shared/types"
)

// Config holds registry client configuration.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	RetryMax int
}

// Client fetches and holds the resolved component registry for one system.
// A fetch replaces the previous snapshot entirely; overrides patch the
// current snapshot in place.
type Client struct {
	mu         sync.RWMutex
	components map[string]types.AssetLocation

	http    *resty.Client
	breaker *resilience.Breaker
	metrics *monitoring.Metrics
}

// NewClient creates a registry client for the configured registry service.
func NewClient(cfg Config) *Client {
	client := httpx.New(httpx.Options{Timeout: cfg.Timeout, RetryMax: cfg.RetryMax})
	client.SetBaseURL(cfg.BaseURL)

	return &Client{
		components: make(map[string]types.AssetLocation),
		http:       client,
		breaker: resilience.New("registry", resilience.Settings{
			FailureThreshold: 5,
			MaxProbes:        2,
			OpenTimeout:      30 * time.Second,
		}),
	}
}

// WithMetrics adds metrics tracking to the client.
func (c *Client) WithMetrics(metrics *monitoring.Metrics) *Client {
	c.metrics = metrics
	return c
}

// Fetch resolves the component set for systemCode, replacing any previous
// snapshot. Failure leaves the previous snapshot untouched.
func (c *Client) Fetch(ctx context.Context, systemCode string) error {
	start := time.Now()

	var fetched map[string]types.AssetLocation
	err := c.breaker.Execute(func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&fetched).
			SetPathParam("system", systemCode).
			Get("/api/systems/{system}/components")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("registry returned status %d", resp.StatusCode())
		}
		return nil
	})

	c.metrics.RecordRegistryFetch(err == nil, time.Since(start))
	if err != nil {
		return fmt.Errorf("failed to fetch registry for system %s: %w", systemCode, err)
	}

	if fetched == nil {
		fetched = make(map[string]types.AssetLocation)
	}

	c.mu.Lock()
	c.components = fetched
	c.mu.Unlock()

	c.metrics.SetComponentsRegistered(len(fetched))
	return nil
}

// ApplyOverrides patches the current snapshot, last write wins per name.
func (c *Client) ApplyOverrides(patch map[string]types.AssetLocation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, location := range patch {
		c.components[name] = location
	}
}

// Components returns the names in the current snapshot, sorted for
// deterministic enumeration.
func (c *Client) Components() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.components))
	for name := range c.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ComponentInfo returns the asset location for name.
func (c *Client) ComponentInfo(name string) (types.AssetLocation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	location, ok := c.components[name]
	return location, ok
}

// Snapshot returns a copy of the current name to asset-location mapping.
func (c *Client) Snapshot() map[string]types.AssetLocation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[string]types.AssetLocation, len(c.components))
	for name, location := range c.components {
		snapshot[name] = location
	}
	return snapshot
}
