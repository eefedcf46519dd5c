package types

import (
	"context"
	"encoding/json"
	"strings"
)

// AssetLocation describes where a component's assets live. An empty field
// means the asset is not configured for this component.
type AssetLocation struct {
	Script     string `json:"script"`
	Stylesheet string `json:"stylesheet"`
}

// Complete reports whether both asset URLs are present.
func (a AssetLocation) Complete() bool {
	return a.Script != "" && a.Stylesheet != ""
}

// OverrideEntry is one override-layer value. It accepts two JSON shapes: the
// full {script, stylesheet} record, or the legacy single-URL string form where
// the string is the script URL and the stylesheet is derived by swapping a
// .js suffix for .css. Any other shape marks the entry invalid; invalid
// entries are reported per component at apply time instead of failing the
// whole layer.
type OverrideEntry struct {
	Script     string
	Stylesheet string
	Invalid    bool
}

// Location returns the normalized asset location for this entry.
func (e OverrideEntry) Location() AssetLocation {
	return AssetLocation{Script: e.Script, Stylesheet: e.Stylesheet}
}

// UnmarshalJSON normalizes both supported override shapes.
func (e *OverrideEntry) UnmarshalJSON(data []byte) error {
	var combined string
	if err := json.Unmarshal(data, &combined); err == nil {
		e.Script = combined
		if strings.HasSuffix(combined, ".js") {
			e.Stylesheet = strings.TrimSuffix(combined, ".js") + ".css"
		}
		return nil
	}

	var record struct {
		Script     string `json:"script"`
		Stylesheet string `json:"stylesheet"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		e.Invalid = true
		return nil
	}
	e.Script = record.Script
	e.Stylesheet = record.Stylesheet
	return nil
}

// MarshalJSON writes the normalized record shape.
func (e OverrideEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Script     string `json:"script"`
		Stylesheet string `json:"stylesheet"`
	}{Script: e.Script, Stylesheet: e.Stylesheet})
}

// OverrideLayer is a patch applied over the resolved registry,
// last-write-wins per component name.
type OverrideLayer map[string]OverrideEntry

// InitOptions carries the arguments for a runtime initialization pass.
type InitOptions struct {
	SystemCode string        `json:"system_code"`
	Overrides  OverrideLayer `json:"overrides,omitempty"`
}

// LifecycleHook is an optional capability exposed by a loaded component
// module. Hooks block until the underlying module code settles.
type LifecycleHook func(ctx context.Context) error

// ComponentModule is the handle produced by the module loader for one
// component. Either hook may be nil, meaning the module does not expose that
// phase. The runtime consults a module once and discards it.
type ComponentModule struct {
	Init  LifecycleHook
	Mount LifecycleHook
}
