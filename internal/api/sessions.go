package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/explode/internal/datetoken"
)

// OpenSession handles POST /sessions.
//
//	@Summary		Open a date decoration session on a document
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenSessionRequest	true	"Document to decorate"
//	@Success		201		{object}	OpenSessionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions [post]
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	live := h.sessions.DefaultLivePreview()
	if req.LivePreview != nil {
		live = *req.LivePreview
	}

	id, err := h.sessions.Open(r.Context(), req.Path, live)
	if err != nil {
		writeError(w, err, "open session", slog.String("path", req.Path))
		return
	}
	snap, err := h.sessions.Annotations(id)
	if err != nil {
		writeError(w, err, "open session", slog.String("session", id))
		return
	}
	writeJSON(w, http.StatusCreated, OpenSessionResponse{ID: id, Snapshot: snap})
}

// SessionAnnotations handles GET /sessions/{id}/annotations.
//
//	@Summary		Get the current annotations of a session
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	session.Snapshot
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/annotations [get]
func (h *Handler) SessionAnnotations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := h.sessions.Annotations(id)
	if err != nil {
		writeError(w, err, "session annotations", slog.String("session", id))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// SetSelection handles PUT /sessions/{id}/selection.
//
//	@Summary		Replace the selection of a session
//	@Tags			sessions
//	@Accept			json
//	@Param			id		path	string				true	"Session id"
//	@Param			body	body	SelectionRequest	true	"Selection ranges"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/selection [put]
func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !readJSON(w, r, &req) {
		return
	}
	h.sessionUpdate(w, r, "set selection", func(id string) error {
		return h.sessions.SetSelection(id, req.Ranges)
	})
}

// SetViewport handles PUT /sessions/{id}/viewport.
//
//	@Summary		Set the visible range of a session
//	@Tags			sessions
//	@Accept			json
//	@Param			id		path	string			true	"Session id"
//	@Param			body	body	datetoken.Span	true	"Visible range"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/viewport [put]
func (h *Handler) SetViewport(w http.ResponseWriter, r *http.Request) {
	var req datetoken.Span
	if !readJSON(w, r, &req) {
		return
	}
	h.sessionUpdate(w, r, "set viewport", func(id string) error {
		return h.sessions.SetViewport(id, req)
	})
}

// SetMode handles PUT /sessions/{id}/mode.
//
//	@Summary		Switch a session between source and live preview
//	@Tags			sessions
//	@Accept			json
//	@Param			id		path	string		true	"Session id"
//	@Param			body	body	ModeRequest	true	"Rendering mode"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/mode [put]
func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req ModeRequest
	if !readJSON(w, r, &req) {
		return
	}
	h.sessionUpdate(w, r, "set mode", func(id string) error {
		return h.sessions.SetLivePreview(id, req.LivePreview)
	})
}

// SetPointer handles PUT /sessions/{id}/pointer.
//
//	@Summary		Report a drag selection starting or ending
//	@Tags			sessions
//	@Accept			json
//	@Param			id		path	string			true	"Session id"
//	@Param			body	body	PointerRequest	true	"Pointer state"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/pointer [put]
func (h *Handler) SetPointer(w http.ResponseWriter, r *http.Request) {
	var req PointerRequest
	if !readJSON(w, r, &req) {
		return
	}
	h.sessionUpdate(w, r, "set pointer", func(id string) error {
		return h.sessions.SetPointerDown(id, req.Down)
	})
}

// CloseSession handles DELETE /sessions/{id}.
//
//	@Summary		Close a session
//	@Tags			sessions
//	@Param			id	path	string	true	"Session id"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id} [delete]
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	h.sessionUpdate(w, r, "close session", h.sessions.Close)
}

func (h *Handler) sessionUpdate(w http.ResponseWriter, r *http.Request, op string, fn func(id string) error) {
	id := chi.URLParam(r, "id")
	if err := fn(id); err != nil {
		writeError(w, err, op, slog.String("session", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
