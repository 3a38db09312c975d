// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, search-core sizing limits, and cross-cutting
keys shared between the HTTP transport layer and the search core.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Search Limits: Request shape bounds from spec §6 (query length, offset cap).
  - Index Field Names: Shared document field identifiers across entities.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "searchcore"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Search Request Limits

const (
	// MinQueryLen and MaxQueryLen bound the free-text query string (spec §6).
	MinQueryLen = 1
	MaxQueryLen = 50

	// DefaultLimit and MaxLimit bound the page size (spec §6).
	DefaultLimit = 20
	MaxLimit     = 50

	// MaxOffset is the largest offset a search request may request (spec §6).
	MaxOffset = 40000

	// MaxFilterTags is the most tags a bot filter may carry (spec §4.7).
	MaxFilterTags = 10
)

// # HTTP Headers

const HeaderXRequestID = "X-Request-ID"

// # Index Field Names

const (
	FieldID                = "id"
	FieldUsername          = "username"
	FieldName              = "name"
	FieldBriefDescription  = "brief_description"
	FieldDescription       = "description"
	FieldTags              = "tags"
	FieldTag               = "tag"
	FieldTagsAggregation   = "tags_agg"
	FieldTagAggregation    = "tag_agg"
	FieldFeatures          = "features"
	FieldPremium           = "premium"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Database Schemas

const SchemaCore = "core"

// # Redis Prefixes (Cache Taxonomy)

const RedisPrefixTrending = "trending:"
