package instrument

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
)

const redacted = "***"

// redactor replaces values under sensitive keys before they reach the
// output handler. Keys match case-insensitively at any nesting depth, inside
// groups, maps and JSON-looking strings. E-mail values keep only the first
// letter and the domain.
type redactor struct {
	next slog.Handler
	keys map[string]struct{}
}

func (h *redactor) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactor) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a, h.keys))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *redactor) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = redactAttr(a, h.keys)
	}
	return &redactor{next: h.next.WithAttrs(clean), keys: h.keys}
}

func (h *redactor) WithGroup(name string) slog.Handler {
	return &redactor{next: h.next.WithGroup(name), keys: h.keys}
}

// MaskKeys normalizes field names into the lookup set used by MaskValue.
func MaskKeys(fields ...[]string) map[string]struct{} {
	var all []string
	for _, f := range fields {
		all = append(all, f...)
	}
	return buildMaskKeys(all)
}

// MaskValue replaces values under masked keys in decoded JSON (maps and slices).
func MaskValue(v any, keys map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if _, hit := keys[strings.ToLower(k)]; hit {
				out[k] = redacted
				continue
			}
			out[k] = MaskValue(inner, keys)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = MaskValue(inner, keys)
		}
		return out
	default:
		return v
	}
}

// MaskEmail keeps the first rune of the local part and the domain.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return redacted
	}
	return string([]rune(local)[0]) + redacted + "@" + domain
}

func buildMaskKeys(fields []string) map[string]struct{} {
	keys := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			keys[f] = struct{}{}
		}
	}
	return keys
}

func redactAttr(a slog.Attr, keys map[string]struct{}) slog.Attr {
	key := strings.ToLower(a.Key)
	if _, hit := keys[key]; hit {
		return slog.String(a.Key, redacted)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		clean := make([]slog.Attr, len(group))
		for i, ga := range group {
			clean[i] = redactAttr(ga, keys)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}
	case slog.KindString:
		s := v.String()
		if key == "email" {
			return slog.String(a.Key, MaskEmail(s))
		}
		if out, ok := redactJSON([]byte(s), keys); ok {
			return slog.String(a.Key, out)
		}
	case slog.KindAny:
		switch val := v.Any().(type) {
		case map[string]any, []any:
			return slog.Any(a.Key, MaskValue(val, keys))
		case map[string]string:
			m := make(map[string]any, len(val))
			for k, s := range val {
				m[k] = s
			}
			return slog.Any(a.Key, MaskValue(m, keys))
		case []byte:
			if out, ok := redactJSON(val, keys); ok {
				return slog.String(a.Key, out)
			}
		}
	}

	return a
}

// redactJSON masks payload when it is a JSON object or array.
func redactJSON(payload []byte, keys map[string]struct{}) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}

	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", false
	}

	out, err := json.Marshal(MaskValue(decoded, keys))
	if err != nil {
		return "", false
	}
	return string(out), true
}
