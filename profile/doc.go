// Package profile provides optional runtime profiling for the creed
// command.
//
// It wraps [github.com/pkg/profile] behind the "pprof" build tag: built
// without the tag (the default), every operation is a no-op with zero
// overhead, and the profiling flags disappear from the CLI surface.
//
// Supported modes with the tag enabled: allocs, block, clock, cpu,
// goroutine, heap, mem, mutex, thread, trace. Use [Modes] to retrieve the
// list programmatically.
package profile
