// Package logging provides a thin per-component *log.Logger wrapper,
// grounded on the log.New(log.Writer(), "[Component] ", log.LstdFlags)
// convention used throughout this tree (pkg/opqueue, pkg/relayer,
// pkg/consensusmod and pkg/txsubmit all construct loggers this way
// already). No third-party
// structured logger is introduced; see the module-level dependency ledger
// for why the stdlib is the right choice here.
package logging

import (
	"fmt"
	"log"
	"strings"
)

// Logger wraps a *log.Logger with a fixed set of key=value fields appended
// to every line, approximating structured logging without a dependency.
type Logger struct {
	base   *log.Logger
	fields string
}

// New builds a component logger prefixed "[component] ".
func New(component string) *Logger {
	return &Logger{base: log.New(log.Writer(), fmt.Sprintf("[%s] ", component), log.LstdFlags)}
}

// With returns a copy of l with additional key=value fields appended to
// every subsequent log line. Typical keys: chain_id, tx_hash, msg, idx.
func (l *Logger) With(kv ...string) *Logger {
	var b strings.Builder
	b.WriteString(l.fields)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %s=%s", kv[i], kv[i+1])
	}
	return &Logger{base: l.base, fields: b.String()}
}

func (l *Logger) Printf(format string, args ...any) {
	l.base.Printf(format+l.fields, args...)
}

func (l *Logger) Println(args ...any) {
	l.base.Println(append(args, l.fields)...)
}
