// Package sanitize strips private/context markup from prompts and tool
// output, and neutralizes the lexical query grammar before it reaches the
// full-text index.
package sanitize

import "strings"

// StripPrivateTags removes <private>...</private> regions (nested pairs
// collapse to the outermost close; an opening tag with no matching close is
// treated as open until EOF), then removes <claude-mem-context>...</...>
// and <system-reminder>...</...> blocks non-greedily. It is idempotent:
// StripPrivateTags(StripPrivateTags(s)) == StripPrivateTags(s).
func StripPrivateTags(s string) string {
	s = stripNestedTag(s, "<private>", "</private>")
	s = stripNonGreedyTag(s, "<claude-mem-context>", "</claude-mem-context>")
	s = stripNonGreedyTag(s, "<system-reminder>", "</system-reminder>")
	return s
}

// stripNestedTag is a small position-stack state machine: every open token
// increments depth, every close token decrements it, and only the text
// outside any open region is kept. This handles nesting correctly, which a
// single non-greedy regex cannot.
func stripNestedTag(s, open, close string) string {
	var out strings.Builder
	depth := 0
	i := 0
	for i < len(s) {
		switch {
		case strings.HasPrefix(s[i:], open):
			depth++
			i += len(open)
		case strings.HasPrefix(s[i:], close):
			if depth > 0 {
				depth--
			}
			i += len(close)
		default:
			if depth == 0 {
				out.WriteByte(s[i])
			}
			i++
		}
	}
	return out.String()
}

// stripNonGreedyTag removes the first close found after each open, leaving
// later unmatched opens (if any) as literal text, which is the non-greedy
// behavior the spec calls for on these two tags.
func stripNonGreedyTag(s, open, close string) string {
	var out strings.Builder
	for {
		start := strings.Index(s, open)
		if start < 0 {
			out.WriteString(s)
			break
		}
		out.WriteString(s[:start])
		rest := s[start+len(open):]
		end := strings.Index(rest, close)
		if end < 0 {
			// No matching close: keep the open tag and the rest as literal text.
			out.WriteString(s[start:])
			break
		}
		s = rest[end+len(close):]
	}
	return out.String()
}

// HasNonWhitespaceContent reports whether s contains at least one
// non-whitespace rune. Used to reject prompts that are entirely private
// after stripping.
func HasNonWhitespaceContent(s string) bool {
	return strings.TrimSpace(s) != ""
}
