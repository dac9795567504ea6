package token

import "strings"

// SplitTokenizer splits on a list of delimiter substrings and records
// which delimiter terminated each field.
//
// Unlike Tokenizer, delimiters here may be multi-character. The recorded
// terminator index is 1-based into the delimiter list; 0 means the field
// ran to end-of-input.
type SplitTokenizer struct {
	Tokenizer
	terminators []int
}

// NewSplit splits source on any of the delimiter substrings in delims.
//
// Empty delimiter entries are ignored. Quoting behaves as in New. Runs of
// delimiters collapse and at most MaxFields fields are kept.
func NewSplit(source string, delims []string) *SplitTokenizer {
	t := &SplitTokenizer{}
	if source == "" || len(delims) == 0 {
		return t
	}

	var field strings.Builder
	started := false
	quoted := false

	flush := func(term int) {
		if started {
			t.fields = append(t.fields, field.String())
			t.terminators = append(t.terminators, term)
			field.Reset()
			started = false
		}
	}

	for i := 0; i < len(source) && len(t.fields) < MaxFields; {
		if source[i] == '"' {
			quoted = !quoted
			started = true
			i++
			continue
		}
		if !quoted {
			if d := matchDelim(source[i:], delims); d > 0 {
				flush(d)
				i += len(delims[d-1])
				continue
			}
		}
		field.WriteByte(source[i])
		started = true
		i++
	}
	if len(t.fields) < MaxFields {
		flush(0)
	}
	return t
}

// Terminator returns the 1-based index of the delimiter that ended field
// i, or 0 when the field was terminated by end-of-input or i is out of
// range.
func (t *SplitTokenizer) Terminator(i int) int {
	if i < 0 || i >= len(t.terminators) {
		return 0
	}
	return t.terminators[i]
}

// matchDelim returns the 1-based index of the first delimiter that
// prefixes s, or 0 when none match.
func matchDelim(s string, delims []string) int {
	for i, d := range delims {
		if d != "" && strings.HasPrefix(s, d) {
			return i + 1
		}
	}
	return 0
}
