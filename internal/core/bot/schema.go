// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bot

import (
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/corelist/searchcore/internal/platform/constants"
	"github.com/corelist/searchcore/internal/search/indexmgr"
)

// Fields lists the full-text fields the query planner (internal/search/query)
// searches, in boost-decay order (spec §4.2: username is the primary
// identity field, so it keeps the highest boost).
var Fields = []string{
	constants.FieldUsername,
	constants.FieldBriefDescription,
	constants.FieldTags,
}

// Mapping builds the bot document mapping: text fields for username, brief
// description and tags; a raw-tokenized aggregation field for exact tag
// filtering and faceting; and indexed numeric fields for the features
// bitmask and the premium bit (spec §3's bot document shape).
func Mapping() (*mapping.IndexMappingImpl, error) {
	im, err := indexmgr.NewMapping()
	if err != nil {
		return nil, err
	}

	text := bleve.NewTextFieldMapping()
	text.Analyzer = indexmgr.TextAnalyzer

	aggregation := bleve.NewTextFieldMapping()
	aggregation.Analyzer = indexmgr.KeywordAnalyzer

	numeric := bleve.NewNumericFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(constants.FieldUsername, text)
	doc.AddFieldMappingsAt(constants.FieldBriefDescription, text)
	doc.AddFieldMappingsAt(constants.FieldTags, text)
	doc.AddFieldMappingsAt(constants.FieldTagsAggregation, aggregation)
	doc.AddFieldMappingsAt(constants.FieldFeatures, numeric)
	doc.AddFieldMappingsAt(constants.FieldPremium, numeric)

	im.DefaultMapping = doc
	return im, nil
}

// docID renders a bot id as the bleve document id.
func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// document builds the indexed field set for row (spec §3's "indexed
// document" shape). The id itself is never part of the field map — it is
// the bleve document id, which indexmgr's AllDocIDs and the reader both
// read back via hit.ID rather than a stored field.
func document(row Row) map[string]interface{} {
	premium := 0.0
	if row.Premium() {
		premium = 1.0
	}

	return map[string]interface{}{
		constants.FieldUsername:         row.Username,
		constants.FieldBriefDescription: row.BriefDescription,
		constants.FieldTags:             row.Tags,
		constants.FieldTagsAggregation:  row.Tags,
		constants.FieldFeatures:         float64(row.Features),
		constants.FieldPremium:          premium,
	}
}
