// Package modules loads component code: it fetches a component's script and
// evaluates it in an isolated goja VM. A module script registers its
// lifecycle hooks through the runtime.register global:
//
//	runtime.register({
//	    init:  function() { ... },
//	    mount: function() { ... },
//	});
//
// Both hooks are optional. Each loaded module gets its own VM; hooks run
// with a timeout and honor context cancellation via VM interrupts.
package modules
