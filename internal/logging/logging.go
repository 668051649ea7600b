// Package logging wires the process-wide zerolog logger. The donor codebase
// targets a WASM browser console and has no logging library of its own;
// this follows the structured-logging idiom used elsewhere across the
// retrieved corpus for a native daemon.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds the root logger. JSON to stderr in production (informational
// logging belongs on stderr only, per the stdio JSON-RPC contract, which
// reserves stdout for protocol frames); a human-readable console writer
// when console is true (local development, `go test -v`).
func New(console bool) zerolog.Logger {
	var w io.Writer = os.Stderr
	if console {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
