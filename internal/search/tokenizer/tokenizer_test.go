// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tokenizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelist/searchcore/internal/search/tokenizer"
)

func drain(s interface {
	Next() (tokenizer.Token, bool)
}) []string {
	var out []string
	for {
		tok, ok := s.Next()
		if !ok {
			break
		}
		out = append(out, tok.Text)
	}
	return out
}

func TestUnicode_WordBreakAndFold(t *testing.T) {
	u := tokenizer.NewUnicode(tokenizer.DefaultIndexMaxLen)
	stream := u.TokenStream("Kira's Music-Bot 2000")

	assert.Equal(t, []string{"kira", "s", "music", "bot", "2000"}, drain(stream))
}

func TestUnicode_LengthCapDropsLongTokens(t *testing.T) {
	u := tokenizer.NewUnicode(4)
	stream := u.TokenStream("kir music fun")

	assert.Equal(t, []string{"kir", "fun"}, drain(stream))
}

func TestUnicode_QueryCapIsIndependentOfIndexCap(t *testing.T) {
	indexTok := tokenizer.NewUnicode(tokenizer.DefaultIndexMaxLen)
	queryTok := tokenizer.NewUnicode(tokenizer.DefaultQueryMaxLen)

	longWord := "supercalifragilisticexpialidocious" // 34 runes, fits index cap (40), not query cap (10)
	require.LessOrEqual(t, len([]rune(longWord)), tokenizer.DefaultIndexMaxLen)

	assert.Equal(t, []string{longWord}, drain(indexTok.TokenStream(longWord)))
	assert.Empty(t, drain(queryTok.TokenStream(longWord)))
}

func TestUnicode_ResetReplaysStream(t *testing.T) {
	u := tokenizer.NewUnicode(tokenizer.DefaultIndexMaxLen)
	stream := u.TokenStream("music fun")

	first := drain(stream)
	stream.Reset()
	second := drain(stream)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"music", "fun"}, first)
}

func TestUnicode_EmptyInputYieldsEmptyStream(t *testing.T) {
	u := tokenizer.NewUnicode(tokenizer.DefaultIndexMaxLen)
	stream := u.TokenStream("")

	_, ok := stream.Next()
	assert.False(t, ok)
}

func TestUnicode_CaseFoldKeepsAccents(t *testing.T) {
	u := tokenizer.NewUnicode(tokenizer.DefaultIndexMaxLen)
	stream := u.TokenStream("Café")

	assert.Equal(t, []string{"café"}, drain(stream))
}

func TestRaw_PassesThroughVerbatim(t *testing.T) {
	var r tokenizer.Raw
	stream := r.TokenStream("Music & Fun")

	assert.Equal(t, []string{"Music & Fun"}, drain(stream))
}

func TestRaw_EmptyInputYieldsEmptyStream(t *testing.T) {
	var r tokenizer.Raw
	stream := r.TokenStream("")

	_, ok := stream.Next()
	assert.False(t, ok)
}

func TestUnicode_TokenizeImplementsBleveAnalysisTokenizer(t *testing.T) {
	u := tokenizer.NewUnicode(tokenizer.DefaultIndexMaxLen)
	tokens := u.Tokenize([]byte("music fun"))

	require.Len(t, tokens, 2)
	assert.Equal(t, "music", string(tokens[0].Term))
	assert.Equal(t, "fun", string(tokens[1].Term))
	assert.Equal(t, 1, tokens[0].Position)
	assert.Equal(t, 2, tokens[1].Position)
}

func TestRaw_TokenizeImplementsBleveAnalysisTokenizer(t *testing.T) {
	var r tokenizer.Raw
	tokens := r.Tokenize([]byte("music,fun"))

	require.Len(t, tokens, 1)
	assert.Equal(t, "music,fun", string(tokens[0].Term))
}
