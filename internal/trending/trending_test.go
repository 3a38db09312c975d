// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package trending

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScores_DropsUnparseableEntries(t *testing.T) {
	raw := map[string]string{
		"1":       "4.5",
		"2":       "not-a-number",
		"not-int": "9.9",
		"3":       "0",
	}

	got := parseScores(raw)

	assert.Equal(t, map[int64]float64{1: 4.5, 3: 0}, got)
}

func TestSource_FetchHTTP_DecodesJSONObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"1":"3.14","2":"2.71"}`))
	}))
	defer server.Close()

	s := &Source{http: &http.Client{}}
	raw, err := s.fetchHTTP(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "3.14", "2": "2.71"}, raw)
}

func TestSource_FetchHTTP_NonOKStatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := &Source{http: &http.Client{}}
	_, err := s.fetchHTTP(context.Background(), server.URL)
	assert.Error(t, err)
}
