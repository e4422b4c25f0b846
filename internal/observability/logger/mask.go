package logger

import (
	"net/http"
	"strings"
)

// Keys whose values are masked wholesale when they appear in logged
// payloads. Matched as substrings of the lowercased key.
var sensitiveKeys = []string{
	"password",
	"secret",
	"token",
	"authorization",
}

// MaskEmail hides the local part of an address while keeping the first
// character and the domain so log lines stay correlatable.
func MaskEmail(value string) string {
	value = strings.TrimSpace(value)
	at := strings.LastIndex(value, "@")
	if at <= 0 {
		return maskTail(value)
	}
	return value[:1] + "***" + value[at:]
}

// MaskAuthorization masks bearer tokens, preserving the scheme.
func MaskAuthorization(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parts := strings.Fields(value)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return "Bearer " + maskTail(parts[1])
	}
	return maskTail(value)
}

// MaskCookie masks cookie values while preserving cookie names.
func MaskCookie(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parts := strings.Split(value, ";")
	masked := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		if idx := strings.Index(segment, "="); idx >= 0 {
			key := strings.TrimSpace(segment[:idx])
			val := strings.TrimSpace(segment[idx+1:])
			segment = key + "=" + maskTail(val)
		} else {
			segment = maskTail(segment)
		}
		masked = append(masked, segment)
	}
	return strings.Join(masked, "; ")
}

// MaskHeaders returns a copy of headers with credential fields masked.
func MaskHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	masked := make(map[string]string, len(headers))
	for key, values := range headers {
		joined := strings.Join(values, ",")
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "authorization":
			masked[key] = MaskAuthorization(joined)
		case "cookie":
			masked[key] = MaskCookie(joined)
		default:
			masked[key] = joined
		}
	}
	return masked
}

// MaskJSON returns a deep-copied map with credential fields masked and
// email addresses reduced to their domain.
func MaskJSON(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		lowered := strings.ToLower(strings.TrimSpace(key))
		switch {
		case strings.Contains(lowered, "email"):
			out[key] = maskEmailValue(value)
		case isSensitiveKey(lowered):
			out[key] = maskValue(value)
		default:
			out[key] = maskJSONValue(value)
		}
	}
	return out
}

func maskJSONValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return MaskJSON(typed)
	case []any:
		items := make([]any, 0, len(typed))
		for _, entry := range typed {
			items = append(items, maskJSONValue(entry))
		}
		return items
	default:
		return value
	}
}

func maskEmailValue(value any) any {
	if s, ok := value.(string); ok {
		return MaskEmail(s)
	}
	return "****"
}

func maskValue(value any) any {
	switch typed := value.(type) {
	case string:
		return maskTail(typed)
	case []byte:
		return maskTail(string(typed))
	default:
		return "****"
	}
}

func isSensitiveKey(key string) bool {
	for _, needle := range sensitiveKeys {
		if strings.Contains(key, needle) {
			return true
		}
	}
	return false
}

func maskTail(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****" + value
	}
	return "****" + value[len(value)-4:]
}
