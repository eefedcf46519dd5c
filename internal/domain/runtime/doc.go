// Package runtime orchestrates component initialization: it resolves the
// component registry for a system, layers caller-supplied and persisted
// overrides on top, and drives an isolated load for every registered
// component. A single component's failure never affects another component or
// the initialization pass as a whole.
package runtime
