// Package cli contains the command line interface for creed.
//
// # Usage
//
// The CLI provides compilation, execution, and inspection of creed source
// files:
//
//	creed check account.creed
//	creed run account.creed withdraw 'Money(300)' --ledger journal.db
//	creed inspect account.creed --where 'balance > 100'
//	creed repl account.creed
//
// # Configuration Loader
//
// Defaults for any flag can be set in a YAML config file (see [resolve]),
// loaded from the user config directory. Command-line flags override config
// file values.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Enable colorized pretty printing
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//		go build -tags pprof .
//
//	  - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//	    heap, mem, mutex, thread, trace)
//	  - --pprof-dir: Set profile output directory (default:
//	    ~/.cache/creed/pprof)
package cli
