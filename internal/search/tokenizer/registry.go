// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tokenizer

import (
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"
)

// Registry names under which Unicode and Raw are available to any bleve
// index mapping's custom analyzer config, e.g.:
//
//	im.AddCustomAnalyzer("text", map[string]interface{}{
//	    "type":      "custom",
//	    "tokenizer": tokenizer.RegistryNameUnicode,
//	})
const (
	RegistryNameUnicode = "searchcore_unicode"
	RegistryNameRaw     = "searchcore_raw"
)

func init() {
	registry.RegisterTokenizer(RegistryNameUnicode, func(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
		return NewUnicode(DefaultIndexMaxLen), nil
	})
	registry.RegisterTokenizer(RegistryNameRaw, func(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
		return Raw{}, nil
	})
}
