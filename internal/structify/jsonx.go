package structify

import (
	"regexp"
	"strings"
)

// fencedBlockRe matches a ```json ... ``` (or bare ```) fenced block and
// captures its body.
var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSONObject pulls the most plausible JSON object out of an AI
// response that may wrap it in a fenced code block or bury it in prose.
// It tries a fenced block first, then falls back to the first brace-balanced
// top-level object. The second return value is false when nothing
// object-shaped was found.
func ExtractJSONObject(s string) (string, bool) {
	if m := fencedBlockRe.FindStringSubmatch(s); m != nil {
		if body := strings.TrimSpace(m[1]); strings.HasPrefix(body, "{") {
			return body, true
		}
	}
	return firstBalancedObject(s)
}

// firstBalancedObject scans for the first '{' and returns the substring up
// to its matching '}'. Braces inside JSON strings are ignored.
func firstBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
