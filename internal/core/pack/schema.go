// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pack

import (
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/corelist/searchcore/internal/platform/constants"
	"github.com/corelist/searchcore/internal/search/indexmgr"
)

// Fields lists the full-text fields the query planner (internal/search/query)
// searches, in boost-decay order (spec §4.2): name is the primary identity
// field, so it keeps the highest boost.
var Fields = []string{
	constants.FieldName,
	constants.FieldDescription,
	constants.FieldTag,
}

// Mapping builds the pack document mapping: text fields for name,
// description and the single category tag, plus a raw-tokenized
// aggregation field for the category filter (spec §3's pack document
// shape, §4.7's "single category string").
func Mapping() (*mapping.IndexMappingImpl, error) {
	im, err := indexmgr.NewMapping()
	if err != nil {
		return nil, err
	}

	text := bleve.NewTextFieldMapping()
	text.Analyzer = indexmgr.TextAnalyzer

	aggregation := bleve.NewTextFieldMapping()
	aggregation.Analyzer = indexmgr.KeywordAnalyzer

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(constants.FieldName, text)
	doc.AddFieldMappingsAt(constants.FieldDescription, text)
	doc.AddFieldMappingsAt(constants.FieldTag, text)
	doc.AddFieldMappingsAt(constants.FieldTagAggregation, aggregation)

	im.DefaultMapping = doc
	return im, nil
}

// docID renders a pack id as the bleve document id.
func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// document builds the indexed field set for row (spec §3's pack document
// shape). Member bot ids are never indexed; pack->bot hydration reads them
// straight off the live cache (spec §4.9).
func document(row Row) map[string]interface{} {
	return map[string]interface{}{
		constants.FieldName:           row.Name,
		constants.FieldDescription:    row.Description,
		constants.FieldTag:            row.Tag,
		constants.FieldTagAggregation: row.Tag,
	}
}
