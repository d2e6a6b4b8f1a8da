// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package langchain

import "strings"

// repairJSON fixes the mistakes models make most often when emitting a
// summary object:
//   - prose around the object ("Here is the summary: {...}")
//   - keys with a missing or stray quote (`summary":`, `key_points:`)
//   - trailing commas before `]` or `}` in key_points and topics
//
// String contents are never modified. Anything else is passed through and
// left for the JSON decoder to reject.
func repairJSON(s string) string {
	s = outermostObject(s)

	var b strings.Builder
	b.Grow(len(s) + 16)

	// open holds the unclosed '{' and '[' so a ',' knows whether a key follows.
	var open []byte
	expectKey := false
	inString, escaped := false, false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
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
			expectKey = false
		case '{', '[':
			open = append(open, c)
			expectKey = c == '{'
		case '}', ']':
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
			expectKey = false
		case ',':
			if closesNext(s, i+1) {
				continue
			}
			expectKey = len(open) > 0 && open[len(open)-1] == '{'
		case ' ', '\t', '\n', '\r':
		default:
			if expectKey {
				if key, colon, ok := bareKey(s, i); ok {
					b.WriteByte('"')
					b.WriteString(key)
					b.WriteByte('"')
					i = colon - 1
					expectKey = false
					continue
				}
			}
			expectKey = false
		}
		b.WriteByte(c)
	}

	return b.String()
}

// outermostObject trims anything before the first '{' and after the last '}'.
func outermostObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// bareKey reads an unquoted identifier at s[i] that is followed by an
// optional stray quote and a colon. It returns the key and the colon index.
func bareKey(s string, i int) (string, int, bool) {
	if !isLetter(rune(s[i])) && s[i] != '_' {
		return "", 0, false
	}
	j := i
	for j < len(s) && (isLetter(rune(s[j])) || s[j] == '_' || (s[j] >= '0' && s[j] <= '9')) {
		j++
	}
	k := j
	if k < len(s) && s[k] == '"' {
		k++
	}
	for k < len(s) && (s[k] == ' ' || s[k] == '\t') {
		k++
	}
	if k >= len(s) || s[k] != ':' {
		return "", 0, false
	}
	return s[i:j], k, true
}

// closesNext reports whether the next non-space byte from i ends a container.
func closesNext(s string, i int) bool {
	for i < len(s) && strings.IndexByte(" \t\n\r", s[i]) >= 0 {
		i++
	}
	return i < len(s) && (s[i] == ']' || s[i] == '}')
}
