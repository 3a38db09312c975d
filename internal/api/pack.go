// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corelist/searchcore/internal/core/pack"
	"github.com/corelist/searchcore/internal/platform/apperr"
	"github.com/corelist/searchcore/internal/platform/dberr"
	"github.com/corelist/searchcore/internal/platform/respond"
	"github.com/corelist/searchcore/pkg/convert"
)

// PackHandler implements the HTTP layer over a pack [pack.Manager].
type PackHandler struct {
	manager *pack.Manager
}

// NewPackHandler constructs a [PackHandler] wrapping manager.
func NewPackHandler(manager *pack.Manager) *PackHandler {
	return &PackHandler{manager: manager}
}

// Routes returns a [chi.Router] configured with the pack directory's
// endpoints, mirroring the bot directory's operation set (spec §6).
func (handler *PackHandler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.search)
	router.Get("/ids", handler.listIDs)
	router.Post("/refresh", handler.refreshAll)
	router.Post("/{id}", handler.upsert)
	router.Delete("/{id}", handler.remove)

	return router
}

/*
GET /api/v1/packs.

Description: Runs a staged fuzzy-prefix search over the pack index (spec
§4.5) and hydrates each hit's member bots from the live bot cache (spec
§4.9).

Request:
  - q: string (free-text query)
  - limit, offset: int
  - category: string (single category tag)
  - sort: string (relevance, likes, trending, num_bots)
  - order: string (asc, desc)

Response:
  - 200: pack.SearchResponse
*/
func (handler *PackHandler) search(writer http.ResponseWriter, request *http.Request) {
	q := request.URL.Query()

	sort, ok := pack.ParseSortBy(q.Get("sort"))
	if !ok {
		respond.Error(writer, request, apperr.ValidationError("unknown sort value"))
		return
	}

	resp, err := handler.manager.Search(request.Context(), pack.SearchRequest{
		Query:  q.Get("q"),
		Limit:  convert.ToIntD(q.Get("limit"), 0),
		Offset: convert.ToIntD(q.Get("offset"), 0),
		Filter: pack.Filter{Category: q.Get("category")},
		Sort:   sort,
		Order:  q.Get("order"),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, resp)
}

// GET /api/v1/packs/ids (spec §6: list_ids()).
func (handler *PackHandler) listIDs(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, handler.manager.ListIDs())
}

// POST /api/v1/packs/refresh (spec §6: refresh_all()).
func (handler *PackHandler) refreshAll(writer http.ResponseWriter, request *http.Request) {
	if err := handler.manager.RefreshAll(request.Context()); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// POST /api/v1/packs/{id} (spec §6: upsert(id)).
func (handler *PackHandler) upsert(writer http.ResponseWriter, request *http.Request) {
	id, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.manager.Upsert(request.Context(), id); err != nil {
		respond.Error(writer, request, dberr.MapNotFound(err, pack.ErrNotFound, "Pack"))
		return
	}
	respond.NoContent(writer)
}

// DELETE /api/v1/packs/{id} (spec §6: remove(id)).
func (handler *PackHandler) remove(writer http.ResponseWriter, request *http.Request) {
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
