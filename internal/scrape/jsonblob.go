package scrape

import "strings"

// JSONAfterToken finds the first '{' after a marker token and returns the
// balanced JSON object starting there, honoring quoted strings and escape
// sequences. It is how embedded state blobs (window.M.state = {...},
// "observation": {...}) are carved out of pages without a DOM.
func JSONAfterToken(input, token string) (string, bool) {
	if input == "" || token == "" {
		return "", false
	}

	tokenIdx := strings.Index(input, token)
	if tokenIdx == -1 {
		return "", false
	}

	start := strings.IndexByte(input[tokenIdx+len(token):], '{')
	if start == -1 {
		return "", false
	}
	start += tokenIdx + len(token)

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(input); i++ {
		c := input[i]

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
				return input[start : i+1], true
			}
		}
	}

	return "", false
}
