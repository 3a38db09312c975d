// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api implements the HTTP interface for the bot directory: search and
the write operations spec §6 names (upsert, remove, refresh_all, list_ids).
*/
package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/corelist/searchcore/internal/core/bot"
	"github.com/corelist/searchcore/internal/platform/apperr"
	"github.com/corelist/searchcore/internal/platform/dberr"
	requestutil "github.com/corelist/searchcore/internal/platform/request"
	"github.com/corelist/searchcore/internal/platform/respond"
	"github.com/corelist/searchcore/pkg/convert"
	"github.com/corelist/searchcore/pkg/pointer"
	"github.com/corelist/searchcore/pkg/query"
)

// BotHandler implements the HTTP layer over a bot [bot.Manager].
type BotHandler struct {
	manager *bot.Manager
}

// NewBotHandler constructs a [BotHandler] wrapping manager.
func NewBotHandler(manager *bot.Manager) *BotHandler {
	return &BotHandler{manager: manager}
}

// Routes returns a [chi.Router] configured with the bot directory's
// endpoints (spec §6's operation set: search, upsert, remove, refresh_all,
// list_ids).
func (handler *BotHandler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.search)
	router.Get("/ids", handler.listIDs)
	router.Post("/refresh", handler.refreshAll)
	router.Post("/{id}", handler.upsert)
	router.Delete("/{id}", handler.remove)

	return router
}

/*
GET /api/v1/bots.

Description: Runs a staged fuzzy-prefix search over the bot index (spec
§4.5) and returns the ranked hits alongside tag_distribution facets.

Request:
  - q: string (free-text query)
  - limit, offset: int
  - tags: []string (up to ten, OR'd)
  - features: string (hex bitmask, at-least-one-bit match)
  - premium: bool
  - sort: string (relevance, votes, trending, popularity, premium)
  - order: string (asc, desc)

Response:
  - 200: bot.SearchResponse
*/
func (handler *BotHandler) search(writer http.ResponseWriter, request *http.Request) {
	q := request.URL.Query()

	sort, ok := bot.ParseSortBy(q.Get("sort"))
	if !ok {
		respond.Error(writer, request, apperr.ValidationError("unknown sort value"))
		return
	}

	filter := bot.Filter{Tags: query.StringSlice(q.Get("tags"))}
	if raw := q.Get("features"); raw != "" {
		mask, err := strconv.ParseUint(raw, 16, 64)
		if err != nil {
			respond.Error(writer, request, apperr.ValidationError("features must be a hex bitmask"))
			return
		}
		filter.Features = pointer.To(mask)
	}
	if raw := q.Get("premium"); raw != "" {
		filter.Premium = pointer.To(convert.ToBool(raw))
	}

	resp, err := handler.manager.Search(request.Context(), bot.SearchRequest{
		Query:  q.Get("q"),
		Limit:  convert.ToIntD(q.Get("limit"), 0),
		Offset: convert.ToIntD(q.Get("offset"), 0),
		Filter: filter,
		Sort:   sort,
		Order:  q.Get("order"),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, resp)
}

/*
GET /api/v1/bots/ids.

Description: Returns the live cache's current key set (spec §6: list_ids()).
*/
func (handler *BotHandler) listIDs(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, handler.manager.ListIDs())
}

/*
POST /api/v1/bots/refresh.

Description: Bulk-rebuilds the live cache and index from the row-store
(spec §6: refresh_all()).
*/
func (handler *BotHandler) refreshAll(writer http.ResponseWriter, request *http.Request) {
	if err := handler.manager.RefreshAll(request.Context()); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
POST /api/v1/bots/{id}.

Description: Re-fetches id from the row-store and upserts it into the live
cache and index (spec §6: upsert(id)).

Response:
  - 404: bot.ErrNotFound — id has no matching row-store record
*/
func (handler *BotHandler) upsert(writer http.ResponseWriter, request *http.Request) {
	id, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.manager.Upsert(request.Context(), id); err != nil {
		respond.Error(writer, request, dberr.MapNotFound(err, bot.ErrNotFound, "Bot"))
		return
	}
	respond.NoContent(writer)
}

/*
DELETE /api/v1/bots/{id}.

Description: Drops id from the live cache and the index (spec §6: remove(id)).
*/
func (handler *BotHandler) remove(writer http.ResponseWriter, request *http.Request) {
	id, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.manager.Remove(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// parseID extracts the {id} URL parameter as an int64.
func parseID(request *http.Request) (int64, error) {
	raw := requestutil.Param(request, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.ValidationError("id must be an integer")
	}
	return id, nil
}
