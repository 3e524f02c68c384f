// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for markpress. Handlers are
// grouped by concern (site pages, editor, chat, images) and receive their
// dependencies through the handler struct.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"markpress/internal/ai"
	"markpress/internal/chat"
	"markpress/internal/middleware"
)

// maxJSONBody caps request bodies on the JSON API.
const maxJSONBody = 1 << 20

// errorBody is the JSON shape of every API error.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes {"error": msg} with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// errNotJSON is returned by decodeJSON for bodies not declared as JSON.
var errNotJSON = errors.New("request body must be application/json")

// decodeJSON reads a size-limited JSON body into dst. The request must be
// sent as application/json; an empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mt != "application/json" {
		return errNotJSON
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// writeDecodeError answers a body decodeJSON rejected: 415 for a wrong
// content type, 400 for anything else.
func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errNotJSON) {
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ai.ErrUnknownModel), errors.Is(err, chat.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrChatNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrNoSession):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError logs unexpected failures and writes the mapped status.
// Client errors carry their message; server errors stay generic.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch status := errorStatus(err); status {
	case http.StatusInternalServerError:
		slog.Error(op+" failed", "error", err, "path", r.URL.Path)
		writeError(w, status, "internal server error")
	case http.StatusServiceUnavailable:
		writeError(w, status, msgNoSession)
	default:
		writeError(w, status, err.Error())
	}
}

// msgNoSession is shown when the session store could not identify the
// visitor, so nothing scoped to a session can be read or written.
const msgNoSession = "Your session could not be loaded. Please try again shortly."

// visitorSession returns the caller's session ID, or writes 503 when the
// request carries none.
func visitorSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := middleware.SessionID(r.Context())
	if id == "" {
		writeError(w, http.StatusServiceUnavailable, msgNoSession)
		return "", false
	}
	return id, true
}
