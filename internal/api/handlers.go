package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/explode/internal/checksum"
	"github.com/starford/explode/internal/commands"
	"github.com/starford/explode/internal/datetoken"
	"github.com/starford/explode/internal/docservice"
	"github.com/starford/explode/internal/session"
)

// Handler holds API route handlers.
type Handler struct {
	docs     *docservice.Service
	sessions *session.Manager
}

// NewHandler creates a new Handler.
func NewHandler(docs *docservice.Service, sessions *session.Manager) *Handler {
	return &Handler{docs: docs, sessions: sessions}
}

// docPath extracts the document path from the URL wildcard. Encoded slashes
// (e.g. topics%2Fnote.md) are accepted.
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListCommands handles GET /commands.
//
//	@Summary		List the available commands
//	@Tags			commands
//	@Produce		json
//	@Success		200	{object}	CommandListResponse
//	@Security		BearerAuth
//	@Router			/commands [get]
func (h *Handler) ListCommands(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, CommandListResponse{Commands: h.docs.Commands().List()})
}

// Transform handles POST /transform/{command}.
//
//	@Summary		Run a command on the posted text
//	@Tags			commands
//	@Accept			json
//	@Produce		json
//	@Param			command	path		string				true	"Command id"
//	@Param			body	body		TransformRequest	true	"Document text"
//	@Success		200		{object}	TransformResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/transform/{command} [post]
func (h *Handler) Transform(w http.ResponseWriter, r *http.Request) {
	command := chi.URLParam(r, "command")
	var req TransformRequest
	if !readJSON(w, r, &req) {
		return
	}
	out, err := h.docs.Commands().Run(r.Context(), command, commands.Input{File: req.File, Text: req.Text})
	if err != nil {
		writeError(w, err, "transform", slog.String("command", command))
		return
	}
	writeJSON(w, http.StatusOK, TransformResponse{
		Command: command,
		Content: out,
		Changed: out != req.Text,
	})
}

// DecorateDates handles POST /dates.
//
//	@Summary		Compute the date token annotations of a text
//	@Tags			dates
//	@Accept			json
//	@Produce		json
//	@Param			body	body		DecorateRequest	true	"Text and view state"
//	@Success		200		{object}	DecorateResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/dates [post]
func (h *Handler) DecorateDates(w http.ResponseWriter, r *http.Request) {
	var req DecorateRequest
	if !readJSON(w, r, &req) {
		return
	}
	annotations := h.sessions.Decorate(req.Text, datetoken.ViewState{
		LivePreview: req.LivePreview,
		Selection:   req.Selection,
		Viewport:    req.Viewport,
	})
	writeJSON(w, http.StatusOK, DecorateResponse{Annotations: annotations})
}

// ListDocuments handles GET /documents.
//
//	@Summary		List the documents of the vault
//	@Tags			documents
//	@Produce		json
//	@Param			folder	query		string	false	"Folder to list"
//	@Success		200		{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	items, err := h.docs.List(r.Context(), folder)
	if err != nil {
		writeError(w, err, "list documents", slog.String("folder", folder))
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: len(items)})
}

// GetDocument handles GET /documents/*.
//
//	@Summary		Get a single document by path
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	Document
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.docs.Get(r.Context(), path)
	if err != nil {
		writeError(w, err, "get document", slog.String("path", path))
		return
	}
	w.Header().Set("ETag", checksum.ETag(doc.Checksum))
	writeJSON(w, http.StatusOK, doc)
}

// ApplyCommand handles POST /documents/{command}/*.
//
//	@Summary		Run a command on a vault document and write the result back
//	@Tags			documents
//	@Produce		json
//	@Param			command		path		string	true	"Command id"
//	@Param			path		path		string	true	"Document path"
//	@Param			If-Match	header		string	false	"SHA-256 checksum for optimistic concurrency"
//	@Success		200			{object}	Transform
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{command}/{path} [post]
func (h *Handler) ApplyCommand(w http.ResponseWriter, r *http.Request) {
	command := chi.URLParam(r, "command")
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	t, err := h.docs.Apply(r.Context(), path, command, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, err, "apply command", slog.String("path", path), slog.String("command", command))
		return
	}
	w.Header().Set("ETag", checksum.ETag(t.Checksum))
	writeJSON(w, http.StatusOK, t)
}

// PreviewCommand handles GET /preview/{command}/*.
//
//	@Summary		Show what a command would make of a vault document
//	@Tags			documents
//	@Produce		json
//	@Param			command	path		string	true	"Command id"
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	Transform
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/preview/{command}/{path} [get]
func (h *Handler) PreviewCommand(w http.ResponseWriter, r *http.Request) {
	command := chi.URLParam(r, "command")
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	t, err := h.docs.Preview(r.Context(), path, command)
	if err != nil {
		writeError(w, err, "preview command", slog.String("path", path), slog.String("command", command))
		return
	}
	writeJSON(w, http.StatusOK, t)
}
