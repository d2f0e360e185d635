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


package openai

import "strings"

// repairJSON fixes the mistakes vision models make when asked for a JSON
// object: keys missing one or both quotes, trailing commas, and answers cut
// off by the token limit (open strings and brackets are closed). Text inside
// string literals is never changed.
func repairJSON(s string) string {
	var out strings.Builder
	out.Grow(len(s) + 8)

	var closers []byte
	inString, escaped, expectKey := false, false, false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			out.WriteByte(c)
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
		case '{':
			closers = append(closers, '}')
			expectKey = true
		case '[':
			closers = append(closers, ']')
			expectKey = false
		case '}', ']':
			if n := len(closers); n > 0 {
				closers = closers[:n-1]
			}
			expectKey = false
		case ',':
			if next := nextNonSpace(s, i+1); next == 0 || next == '}' || next == ']' {
				continue
			}
			expectKey = len(closers) > 0 && closers[len(closers)-1] == '}'
		case ' ', '\t', '\n', '\r':
		default:
			if expectKey && isKeyStart(c) {
				end := i
				for end < len(s) && isKeyByte(s[end]) {
					end++
				}
				after := end
				if after < len(s) && s[after] == '"' {
					after++
				}
				if colon := skipSpace(s, after); colon < len(s) && s[colon] == ':' {
					out.WriteByte('"')
					out.WriteString(s[i:end])
					out.WriteByte('"')
					i = after - 1
					expectKey = false
					continue
				}
			}
			expectKey = false
		}
		out.WriteByte(c)
	}

	if inString {
		out.WriteByte('"')
	}
	for i := len(closers) - 1; i >= 0; i-- {
		out.WriteByte(closers[i])
	}
	return out.String()
}

func nextNonSpace(s string, i int) byte {
	if i = skipSpace(s, i); i < len(s) {
		return s[i]
	}
	return 0
}

func skipSpace(s string, i int) int {
	for i < len(s) && strings.IndexByte(" \t\n\r", s[i]) >= 0 {
		i++
	}
	return i
}

func isKeyStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKeyByte(c byte) bool {
	return isKeyStart(c) || (c >= '0' && c <= '9')
}
