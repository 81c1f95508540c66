package security

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"
)

const redactedValue = "[REDACTED]"

// Sensitive header names, lower-cased.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
}

// Substrings that mark a JSON field, XML element or query parameter as
// sensitive.
var sensitiveFields = []string{
	"password",
	"contrasena",
	"contraseña",
	"secret",
	"token",
	"apikey",
	"api_key",
	"authorization",
	"credential",
	"private_key",
	"auth",
}

// sensitiveXMLElement matches the opening tag of an element whose local name
// contains a sensitive word, its text content, and the start of the closing
// tag.
var sensitiveXMLElement = regexp.MustCompile(`(?i)(<(?:\w+:)?\w*(?:password|contrasena|secret|token|credential)\w*(?:\s[^>]*)?>)[^<]*(</)`)

func isSensitive(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

// SanitizeHeaders flattens headers into a map with sensitive values redacted.
func SanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = redactedValue
			continue
		}
		sanitized[key] = strings.Join(values, ", ")
	}
	return sanitized
}

// SanitizeBody turns a request or response body into a JSON document safe to
// log and store. JSON bodies keep their structure with sensitive fields
// redacted; XML and plain text are wrapped as {"_format", "_raw"}; binary
// data is base64 encoded. Bodies over maxSize are cut to a preview.
func SanitizeBody(body []byte, maxSize int) json.RawMessage {
	if len(body) == 0 {
		return nil
	}

	if len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b {
		decompressed, err := decompressGzip(body)
		if err != nil {
			return wrapBinary(body, "gzip-compressed (decompression failed)")
		}
		body = decompressed
	}

	if !utf8.Valid(body) {
		return wrapBinary(body, "binary (non-UTF8)")
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return wrapText(sensitiveXMLElement.ReplaceAllString(string(body), "${1}"+redactedValue+"${2}"), "xml", maxSize)
	}

	if maxSize > 0 && len(body) > maxSize {
		return wrapText(string(body), "text", maxSize)
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return wrapText(string(body), "text", maxSize)
	}
	result, err := json.Marshal(sanitizeValue(data))
	if err != nil {
		return wrapText(string(body), "text", maxSize)
	}
	return result
}

func decompressGzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func wrapText(text, format string, maxSize int) json.RawMessage {
	wrapped := map[string]any{"_format": format}
	if maxSize > 0 && len(text) > maxSize {
		cut := maxSize
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		wrapped["_truncated"] = true
		wrapped["_size"] = len(text)
		text = text[:cut]
	}
	wrapped["_raw"] = text
	result, _ := json.Marshal(wrapped)
	return result
}

func wrapBinary(data []byte, format string) json.RawMessage {
	result, _ := json.Marshal(map[string]any{
		"_binary": true,
		"_format": format,
		"_size":   len(data),
		"_base64": base64.StdEncoding.EncodeToString(data),
	})
	return result
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, value := range val {
			if isSensitive(key) {
				out[key] = redactedValue
			} else {
				out[key] = sanitizeValue(value)
			}
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, value := range val {
			out[i] = sanitizeValue(value)
		}
		return out
	default:
		return val
	}
}

// SanitizeURL redacts the values of sensitive query parameters, keeping the
// parameter order intact.
func SanitizeURL(rawURL string) string {
	base, query, found := strings.Cut(rawURL, "?")
	if !found || query == "" {
		return rawURL
	}

	params := strings.Split(query, "&")
	for i, param := range params {
		key, _, hasValue := strings.Cut(param, "=")
		if hasValue && isSensitive(key) {
			params[i] = key + "=" + redactedValue
		}
	}
	return base + "?" + strings.Join(params, "&")
}
