// Package main is the entry point for the micro-frontend component runtime.
//
// The runtime resolves a registry of independently deployable UI components
// for a system, layers developer overrides on top, loads each component's
// script and stylesheet, and drives the component lifecycle hooks — all
// exposed over a small REST surface consumed by the host shell.
//
// Configuration comes from environment variables (12-factor), with defaults
// suitable for local development.
//
// Usage:
//
//	REGISTRY_URL=http://registry.internal:9000 ./server
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
