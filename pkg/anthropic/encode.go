package anthropic

import "encoding/base64"

func encodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// ExtractJSON trims common wrappers models put around JSON output: code
// fences and leading prose up to the first brace. It does not validate the
// payload; callers unmarshal and handle errors themselves.
func ExtractJSON(text string) string {
	start := -1
	depth := 0
	for i, r := range text {
		switch r {
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return text
}
