package yamdb

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() string
	IsSuperuser() bool
}

// Config holds the secrets and token options. It is loaded once at startup
// and treated as immutable afterwards.
type Config interface {
	GetSigningKey() string
	GetCodeSalt() string
	GetCodeTTL() time.Duration
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
}

// Notifier delivers a message to a recipient. Errors are surfaced to the
// caller, there is no silent fallback.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, recipient, subject, body string) error

// Send implements Notifier.
func (f NotifierFunc) Send(ctx context.Context, recipient, subject, body string) error {
	return f(ctx, recipient, subject, body)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Print("[ERR] YAMDB " + FormatLogLine(format, args...))
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Print("[WRN] YAMDB " + FormatLogLine(format, args...))
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Print("[INF] YAMDB " + FormatLogLine(format, args...))
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Print("[DBG] YAMDB " + FormatLogLine(format, args...))
}

// FormatLogLine renders a log call. Messages carrying printf verbs are
// formatted, otherwise args are treated as key/value pairs.
func FormatLogLine(format string, args ...any) string {
	var b strings.Builder
	if strings.Contains(format, "%") {
		b.WriteString(fmt.Sprintf(format, args...))
	} else {
		b.WriteString(format)
		for i := 0; i < len(args); i += 2 {
			if i+1 < len(args) {
				fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
			} else {
				fmt.Fprintf(&b, " %v", args[i])
			}
		}
	}
	return newline(b.String())
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
