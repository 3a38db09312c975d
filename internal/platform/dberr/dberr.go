// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/corelist/searchcore/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 2. Unknown query errors become Internal Server Errors
	// Real implementation would also check the Postgres SQLSTATE (e.g. 23505 for unique violation)
	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}

// MapNotFound translates sentinel, when present in err's chain, into a 404
// [apperr.AppError] naming resource; any other error passes through
// unchanged. The entity packages (internal/core/bot, internal/core/pack)
// each return their own row-not-found sentinel from Upsert, and the HTTP
// layer uses this at the boundary to turn it into a client-facing response.
func MapNotFound(err, sentinel error, resource string) error {
	if errors.Is(err, sentinel) {
		return apperr.NotFound(resource)
	}
	return err
}
