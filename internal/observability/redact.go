package observability

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue подставляется вместо секретов
const MaskValue = "***REDACTED***"

var sensitiveKeys = map[string]bool{
	"cookie":        true,
	"set-cookie":    true,
	"authorization": true,
	"dsn":           true,
	"password":      true,
	"session":       true,
	"jsessionid":    true,
}

var sensitiveKeywords = []string{"password", "secret", "token", "session", "cookie"}

var (
	// user:pass@ в строках подключения
	credentialsRe = regexp.MustCompile(`://([^/\s:@]+):([^/\s@]+)@`)
	bearerRe      = regexp.MustCompile(`(?i)^bearer\s+.+`)
)

// RedactHandler маскирует атрибуты с секретами до того, как запись попадёт в лог
type RedactHandler struct {
	handler slog.Handler
}

func NewRedactHandler(handler slog.Handler) *RedactHandler {
	return &RedactHandler{handler: handler}
}

func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *RedactHandler) Handle(ctx context.Context, r slog.Record) error {
	clean := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, clean)
}

func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = redactAttr(a)
	}
	return &RedactHandler{handler: h.handler.WithAttrs(clean)}
}

func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{handler: h.handler.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		clean := make([]slog.Attr, len(group))
		for i, ga := range group {
			clean[i] = redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}
	}

	key := strings.ToLower(a.Key)
	if sensitiveKeys[key] || hasSensitiveKeyword(key) {
		return slog.String(a.Key, MaskValue)
	}

	var text string
	switch a.Value.Kind() {
	case slog.KindString:
		text = a.Value.String()
	case slog.KindAny:
		// Ошибки драйверов часто повторяют DSN целиком
		switch v := a.Value.Any().(type) {
		case error:
			text = v.Error()
		case fmt.Stringer:
			text = v.String()
		default:
			return a
		}
	default:
		return a
	}

	if clean, changed := redactString(text); changed {
		return slog.String(a.Key, clean)
	}
	return a
}

func redactString(v string) (string, bool) {
	if bearerRe.MatchString(v) {
		return MaskValue, true
	}
	if credentialsRe.MatchString(v) {
		return credentialsRe.ReplaceAllString(v, "://$1:"+MaskValue+"@"), true
	}
	return v, false
}

func hasSensitiveKeyword(key string) bool {
	for _, kw := range sensitiveKeywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}
