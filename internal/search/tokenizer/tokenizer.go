// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package tokenizer implements the two analyzers the search core's schema and
query planner share: a Unicode word-breaking, case-folding, length-capped
tokenizer for free text, and a raw pass-through tokenizer for aggregation
and exact-match fields.

Both types implement bleve's [analysis.Tokenizer] interface so they can be
registered directly into an index's custom analyzer and reused, unmodified,
by the query planner to tokenize free-text search input — the same
normalization pipeline runs at index time and query time, just with a
different length cap (see [NewUnicode] and the MaxLen field).

# Normalization

Word-break happens on Unicode letter/digit boundaries, followed by NFC
normalization and full case-folding. Accents are kept: "Café" becomes
"café", not "cafe".
*/
package tokenizer

import (
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultIndexMaxLen is the token length cap applied when analyzing documents
// at index time (spec: "default 40").
const DefaultIndexMaxLen = 40

// DefaultQueryMaxLen is the token length cap applied when the query planner
// tokenizes free-text search input (spec: "query-time cap 10").
const DefaultQueryMaxLen = 10

var foldCase = cases.Fold()

// Token is a single normalized token produced by a [Unicode] or [Raw] stream.
type Token struct {
	Text string
}

// Stream is a resettable, ordered sequence of tokens.
//
// Resettable means a consumer can walk the stream once, call [Stream.Reset],
// and walk it again from the start. The query planner does not rewind it:
// it drains the stream once into a slice that every fuzzy stage reuses.
type Stream struct {
	tokens []Token
	pos    int
}

// Next advances the stream and returns the next token, or false when exhausted.
func (s *Stream) Next() (Token, bool) {
	if s == nil || s.pos >= len(s.tokens) {
		return Token{}, false
	}
	t := s.tokens[s.pos]
	s.pos++
	return t, true
}

// Reset rewinds the stream to its first token.
func (s *Stream) Reset() {
	if s == nil {
		return
	}
	s.pos = 0
}

// Len reports how many tokens remain unread.
func (s *Stream) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tokens) - s.pos
}

// Unicode is a word-segmenting tokenizer that lowercases tokens and drops
// any token whose character length exceeds MaxLen.
//
// A zero-value Unicode uses [DefaultIndexMaxLen].
type Unicode struct {
	MaxLen int
}

// NewUnicode returns a [Unicode] tokenizer capped at maxLen runes per token.
// A non-positive maxLen falls back to [DefaultIndexMaxLen].
func NewUnicode(maxLen int) *Unicode {
	return &Unicode{MaxLen: maxLen}
}

// TokenStream tokenizes input into a resettable [Stream] of normalized tokens.
func (u *Unicode) TokenStream(input string) *Stream {
	words := splitWords(input)
	max := u.MaxLen
	if max <= 0 {
		max = DefaultIndexMaxLen
	}

	tokens := make([]Token, 0, len(words))
	for _, w := range words {
		normalized := normalizeWord(w)
		if normalized == "" {
			continue
		}
		if runeLen(normalized) > max {
			continue
		}
		tokens = append(tokens, Token{Text: normalized})
	}
	return &Stream{tokens: tokens}
}

// Tokenize implements bleve's analysis.Tokenizer so [Unicode] can be
// registered as a custom index-time tokenizer.
func (u *Unicode) Tokenize(input []byte) analysis.TokenStream {
	s := u.TokenStream(string(input))
	out := make(analysis.TokenStream, 0, len(s.tokens))
	pos := 1
	offset := 0
	for _, t := range s.tokens {
		start := offset
		end := start + len(t.Text)
		out = append(out, &analysis.Token{
			Term:     []byte(t.Text),
			Start:    start,
			End:      end,
			Position: pos,
			Type:     analysis.AlphaNumeric,
		})
		offset = end + 1
		pos++
	}
	return out
}

// Raw is a pass-through tokenizer: it emits the entire, untrimmed input as a
// single verbatim token. Used for aggregation fields (`tags_agg`/`tag_agg`)
// and exact-match filter terms, where values must survive untouched.
type Raw struct{}

// TokenStream returns a single-token stream containing input verbatim.
func (Raw) TokenStream(input string) *Stream {
	if input == "" {
		return &Stream{}
	}
	return &Stream{tokens: []Token{{Text: input}}}
}

// Tokenize implements bleve's analysis.Tokenizer for the raw/keyword analyzer.
func (Raw) Tokenize(input []byte) analysis.TokenStream {
	if len(input) == 0 {
		return analysis.TokenStream{}
	}
	return analysis.TokenStream{{
		Term:     input,
		Start:    0,
		End:      len(input),
		Position: 1,
		Type:     analysis.Single,
	}}
}

// splitWords breaks s on Unicode letter/digit boundaries.
func splitWords(s string) []string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current = append(current, r)
			continue
		}
		flush()
	}
	flush()
	return words
}

// normalizeWord applies NFC normalization and full case-folding; accents
// are kept.
func normalizeWord(w string) string {
	composed := norm.NFC.String(w)
	return foldCase.String(composed)
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
