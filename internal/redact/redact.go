// Package redact masks sensitive substrings in captured command output and
// log payloads before they leave the process.
package redact

import "regexp"

var (
	authorizationBearerPattern = regexp.MustCompile(`(?i)\b(Authorization)\b(\s*[:=]\s*)Bearer\s+[A-Za-z0-9\-._~+/]+=*`)
	secretAssignmentPattern    = regexp.MustCompile(`(?i)\b([A-Z0-9_]*(?:API[_-]?KEY|TOKEN|SECRET|PASSWORD|PASSWD)[A-Z0-9_]*)\b(\s*[:=]\s*)([^\s"']+|"[^"]*"|'[^']*')`)
	bearerTokenPattern         = regexp.MustCompile(`(?i)\b(Bearer)\s+[A-Za-z0-9\-._~+/]+=*`)
	openAIKeyPattern           = regexp.MustCompile(`\bsk-[A-Za-z0-9]{12,}\b`)
	jwtPattern                 = regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9._-]+\.[A-Za-z0-9._-]+\b`)
	awsAccessKeyIDPattern      = regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)
)

// Text masks sensitive spans in s with fixed placeholders while preserving
// the surrounding text. Running it on already-redacted text is a no-op.
func Text(s string) string {
	if s == "" {
		return s
	}

	s = authorizationBearerPattern.ReplaceAllString(s, "${1}${2}Bearer <REDACTED>")
	s = secretAssignmentPattern.ReplaceAllString(s, "${1}${2}<REDACTED>")
	s = bearerTokenPattern.ReplaceAllString(s, "${1} <REDACTED>")
	s = openAIKeyPattern.ReplaceAllString(s, "<REDACTED_OPENAI_KEY>")
	s = jwtPattern.ReplaceAllString(s, "<REDACTED_JWT>")
	s = awsAccessKeyIDPattern.ReplaceAllString(s, "<REDACTED_AWS_ACCESS_KEY_ID>")
	return s
}

// Value walks a decoded JSON value (maps, slices, strings) and redacts every
// string it contains. Non-string leaves are returned unchanged.
func Value(v any) any {
	switch value := v.(type) {
	case string:
		return Text(value)
	case map[string]any:
		out := make(map[string]any, len(value))
		for key, item := range value {
			out[key] = Value(item)
		}
		return out
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = Value(item)
		}
		return out
	default:
		return v
	}
}
