// Package redact masks secret material in any string that leaves the
// engine. The pattern set is shared with the leak checker so that anything
// the scanner would flag is also masked on the way out.
package redact

import "regexp"

// SecretPatterns is the fixed set of secret-shaped regexes. The leak checker
// scans with these and the filter masks their matches.
var SecretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)sk-[a-z0-9]{16,}`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`ASIA[0-9A-Z]{16}`),
	regexp.MustCompile(`ssh-rsa [A-Za-z0-9+/=]{40,}`),
	regexp.MustCompile(`(?s)-----BEGIN [A-Z ]+PRIVATE KEY-----.+?-----END [A-Z ]+PRIVATE KEY-----`),
}

// Mask replaces a matched secret with its masked form: all asterisks when
// the match is 8 characters or fewer, otherwise asterisks with the last 4
// characters preserved.
func Mask(value string) string {
	if len(value) <= 8 {
		return stars(len(value))
	}
	return stars(len(value)-4) + value[len(value)-4:]
}

func stars(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '*'
	}
	return string(b)
}

// Secrets masks every secret-pattern match in text, pattern by pattern,
// left to right.
func Secrets(text string) string {
	redacted := text
	for _, pattern := range SecretPatterns {
		redacted = pattern.ReplaceAllStringFunc(redacted, Mask)
	}
	return redacted
}

// Tree walks an evidence tree and masks every string leaf. Slices and maps
// are walked recursively; non-string leaves pass through untouched.
func Tree(value any) any {
	switch v := value.(type) {
	case string:
		return Secrets(v)
	case []string:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = Secrets(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Tree(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = Tree(item)
		}
		return out
	default:
		return value
	}
}
