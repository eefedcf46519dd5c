// Package types defines shared data structures used across the runtime:
// component asset locations, override layers, and loaded module handles.
package types
