package api

import (
	"github.com/starford/explode/internal/commands"
	"github.com/starford/explode/internal/datetoken"
	"github.com/starford/explode/internal/models"
	"github.com/starford/explode/internal/session"
)

// Command is a registered command (aliased from the domain layer).
type Command = commands.Command

// CommandListResponse wraps the command list.
type CommandListResponse struct {
	Commands []Command `json:"commands" validate:"required"`
}

// TransformRequest is the request body of a stateless transform.
type TransformRequest struct {
	// File identifies the document for outline caching; optional.
	File string `json:"file,omitempty" example:"notes/plan.md"`
	Text string `json:"text" example:"## Plan\n\nShip it. Rest." validate:"required"`
}

// TransformResponse carries the replacement text.
type TransformResponse struct {
	Command string `json:"command" example:"explode" validate:"required"`
	Content string `json:"content" validate:"required"`
	Changed bool   `json:"changed"`
}

// Document is the full document response type.
type Document = models.Document

// DocumentListResponse wraps document listings.
type DocumentListResponse struct {
	Documents []models.DocumentInfo `json:"documents" validate:"required"`
	Total     int                   `json:"total" example:"42" validate:"required"`
}

// Transform is the result of applying or previewing a command on a file.
type Transform = models.Transform

// DecorateRequest asks for the date annotations of a text.
type DecorateRequest struct {
	Text        string           `json:"text" validate:"required"`
	LivePreview bool             `json:"live_preview"`
	Selection   []datetoken.Span `json:"selection"`
	Viewport    datetoken.Span   `json:"viewport"`
}

// DecorateResponse carries date annotations.
type DecorateResponse struct {
	Annotations []session.Annotation `json:"annotations" validate:"required"`
}

// OpenSessionRequest opens a decoration session on a vault file.
type OpenSessionRequest struct {
	Path string `json:"path" example:"notes/plan.md" validate:"required"`
	// LivePreview defaults to the configured mode when omitted.
	LivePreview *bool `json:"live_preview,omitempty"`
}

// OpenSessionResponse returns the new session and its initial annotations.
type OpenSessionResponse struct {
	ID       string            `json:"id" example:"3f2b..." validate:"required"`
	Snapshot *session.Snapshot `json:"snapshot" validate:"required"`
}

// SelectionRequest replaces the selection of a session.
type SelectionRequest struct {
	Ranges []datetoken.Span `json:"ranges"`
}

// ModeRequest switches between source and live preview.
type ModeRequest struct {
	LivePreview bool `json:"live_preview"`
}

// PointerRequest reports a drag selection starting or ending.
type PointerRequest struct {
	Down bool `json:"down"`
}
