// Package registry resolves the component registry for a system: it fetches
// the component-name to asset-location mapping from the registry service and
// applies override patches on top of the fetched snapshot.
package registry
