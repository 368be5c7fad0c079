package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// sensitiveKeys contains attribute keys that should always be sanitized.
var sensitiveKeys = map[string]bool{
	"password":      true,
	"passwd":        true,
	"passphrase":    true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"authorization": true,
	"cookie":        true,
	"private_key":   true,
	"stego_key":     true,
	"stegokey":      true,
	"credentials":   true,
}

// sensitiveKeywords mark a key as sensitive when contained in it.
// The bare word "key" is excluded because it matches too much.
var sensitiveKeywords = []string{
	"password", "passwd", "passphrase", "secret", "token", "credential", "private",
}

// sensitiveFlags are CLI flags whose following argument is a secret.
var sensitiveFlags = map[string]bool{
	"-p":           true,
	"-k":           true,
	"-P":           true,
	"-passphrase":  true,
	"--passphrase": true,
	"--password":   true,
	"--key":        true,
}

// sensitivePatterns contains regex patterns that indicate sensitive values.
var sensitivePatterns = []*regexp.Regexp{
	// JWT tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),

	// Bearer tokens
	regexp.MustCompile(`(?i)^bearer\s+.+`),

	// Private key markers
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// DefaultMaxValueLength bounds logged string values.
const DefaultMaxValueLength = 1024

// SecureHandler wraps an slog.Handler to sanitize sensitive information.
// It intercepts log records and sanitizes attribute values before passing
// them to the underlying handler.
type SecureHandler struct {
	// handler is the underlying slog handler that receives sanitized records.
	handler slog.Handler

	// maxValueLength bounds string values; 0 disables truncation.
	maxValueLength int
}

// HandlerOption configures a SecureHandler.
type HandlerOption func(*SecureHandler)

// WithMaxValueLength sets the bound for logged string values.
// Zero disables truncation.
func WithMaxValueLength(n int) HandlerOption {
	return func(h *SecureHandler) {
		if n >= 0 {
			h.maxValueLength = n
		}
	}
}

// NewSecureHandler creates a new SecureHandler wrapping the given handler.
// If handler is nil, the returned SecureHandler will use slog.Default().Handler().
func NewSecureHandler(handler slog.Handler, opts ...HandlerOption) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	h := &SecureHandler{handler: handler, maxValueLength: DefaultMaxValueLength}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it to the underlying handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})

	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are sanitized before being added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitizedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitizedAttrs[i] = h.sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitizedAttrs), maxValueLength: h.maxValueLength}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name), maxValueLength: h.maxValueLength}
}

// sanitizeAttr sanitizes a single attribute, recursively handling groups.
func (h *SecureHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitizedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			sanitizedAttrs[i] = h.sanitizeAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitizedAttrs...)}
	}

	keyLower := strings.ToLower(a.Key)
	if sensitiveKeys[keyLower] || containsSensitiveKeyword(keyLower) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if isSensitiveValue(s) {
			return slog.String(a.Key, MaskValue)
		}
		return slog.String(a.Key, h.truncate(s))
	case slog.KindAny:
		if args, ok := a.Value.Any().([]string); ok {
			return slog.Any(a.Key, h.maskArgs(args))
		}
	}

	return a
}

// maskArgs returns a copy of args with flag-supplied secrets masked.
func (h *SecureHandler) maskArgs(args []string) []string {
	masked := make([]string, len(args))
	maskNext := false
	for i, arg := range args {
		switch {
		case maskNext:
			masked[i] = MaskValue
			maskNext = false
		case sensitiveFlags[arg]:
			masked[i] = arg
			maskNext = true
		default:
			if flag, _, ok := strings.Cut(arg, "="); ok && sensitiveFlags[flag] {
				masked[i] = flag + "=" + MaskValue
				continue
			}
			masked[i] = h.truncate(arg)
		}
	}
	return masked
}

// truncate bounds s to the configured length with an explicit marker.
func (h *SecureHandler) truncate(s string) string {
	if h.maxValueLength == 0 || len(s) <= h.maxValueLength {
		return s
	}
	return fmt.Sprintf("%s...(truncated %d bytes)", s[:h.maxValueLength], len(s)-h.maxValueLength)
}

// containsSensitiveKeyword checks if the key contains sensitive keywords.
func containsSensitiveKeyword(key string) bool {
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue checks if a value matches sensitive patterns.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// NewSecureLogger creates a new text slog.Logger with secure handling.
// If verbose is true the level is Debug, otherwise Warn.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger creates a new slog.Logger with secure handling
// that outputs JSON format.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
