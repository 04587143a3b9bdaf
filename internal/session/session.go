// Package session hosts the date decoration of documents opened in remote
// views. Each session mirrors one view: its text, selection, viewport and
// rendering mode.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/goodsign/monday"
	"github.com/google/uuid"

	"github.com/starford/explode/internal/apperr"
	"github.com/starford/explode/internal/datetoken"
	"github.com/starford/explode/internal/sse"
	"github.com/starford/explode/internal/storage"
)

// Publisher receives recomputed annotation sets.
type Publisher interface {
	Publish(event sse.Event)
}

// Annotation is a decoration with its widget rendered for display.
type Annotation struct {
	datetoken.Annotation
	Display *datetoken.Rendered `json:"display,omitempty"`
}

// Snapshot is the current decoration of one session.
type Snapshot struct {
	Session     string       `json:"session"`
	Path        string       `json:"path"`
	LivePreview bool         `json:"live_preview"`
	Annotations []Annotation `json:"annotations"`
}

type session struct {
	id          string
	path        string
	text        string
	state       datetoken.ViewState
	pointerDown bool
	plugin      *datetoken.Plugin
}

// Manager owns the open sessions.
type Manager struct {
	store  storage.Provider
	dec    *datetoken.Decorator
	locale monday.Locale
	events Publisher
	logger *slog.Logger

	// livePreview is the mode of sessions opened without an explicit one.
	livePreview bool

	mu       sync.Mutex
	sessions map[string]*session
}

// Option configures a Manager.
type Option func(*Manager)

// WithPublisher sets the sink for dates.updated events.
func WithPublisher(p Publisher) Option {
	return func(m *Manager) { m.events = p }
}

// WithLocale sets the locale widgets are rendered in.
func WithLocale(l monday.Locale) Option {
	return func(m *Manager) { m.locale = l }
}

// WithLivePreview sets the default rendering mode of new sessions.
func WithLivePreview(on bool) Option {
	return func(m *Manager) { m.livePreview = on }
}

// WithLogger sets the manager logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a session manager decorating with dec.
func NewManager(store storage.Provider, dec *datetoken.Decorator, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		dec:         dec,
		locale:      monday.LocaleEnUS,
		logger:      slog.Default(),
		livePreview: true,
		sessions:    make(map[string]*session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DefaultLivePreview returns the mode used when a client does not pick one.
func (m *Manager) DefaultLivePreview() bool {
	return m.livePreview
}

// Open starts a session on the document at path and returns its id.
func (m *Manager) Open(_ context.Context, path string, livePreview bool) (string, error) {
	data, err := m.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", apperr.ErrNotFound
		}
		return "", err
	}

	s := &session{
		id:    uuid.NewString(),
		path:  path,
		text:  string(data),
		state: datetoken.ViewState{LivePreview: livePreview},
	}
	s.plugin = datetoken.NewPlugin(m.dec, s.text, s.state)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Debug("session opened", slog.String("session", s.id), slog.String("path", path))
	return s.id, nil
}

// Close ends session id.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return apperr.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Annotations returns the current decoration of session id.
func (m *Manager) Annotations(id string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperr.ErrSessionNotFound
	}
	return m.snapshot(s), nil
}

// SetSelection replaces the selection ranges of session id.
func (m *Manager) SetSelection(id string, sel []datetoken.Span) error {
	return m.update(id, datetoken.TriggerSelection, func(s *session) {
		s.state.Selection = append([]datetoken.Span(nil), sel...)
	})
}

// SetViewport sets the visible range of session id.
func (m *Manager) SetViewport(id string, vp datetoken.Span) error {
	return m.update(id, datetoken.TriggerViewport, func(s *session) {
		s.state.Viewport = vp
	})
}

// SetLivePreview switches session id between source and live preview.
func (m *Manager) SetLivePreview(id string, on bool) error {
	return m.update(id, datetoken.TriggerMode, func(s *session) {
		s.state.LivePreview = on
	})
}

// SetPointerDown records a drag selection starting or ending. Releasing the
// pointer settles the selection made during the drag.
func (m *Manager) SetPointerDown(id string, down bool) error {
	var trigger datetoken.Trigger
	if !down {
		trigger = datetoken.TriggerSelection
	}
	return m.update(id, trigger, func(s *session) {
		s.pointerDown = down
	})
}

// DocumentChanged reloads path for every session showing it.
func (m *Manager) DocumentChanged(path string) error {
	m.mu.Lock()
	var ids []string
	for id, s := range m.sessions {
		if s.path == path {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()
	if len(ids) == 0 {
		return nil
	}

	data, err := m.store.Read(path)
	if err != nil {
		return fmt.Errorf("session: reload %s: %w", path, err)
	}
	for _, id := range ids {
		err := m.update(id, datetoken.TriggerDoc, func(s *session) {
			s.text = string(data)
		})
		// The session may have closed meanwhile.
		if err != nil && !errors.Is(err, apperr.ErrSessionNotFound) {
			return err
		}
	}
	return nil
}

// update applies mutate to session id and runs the decoration plugin with
// trigger. A changed annotation set is published.
func (m *Manager) update(id string, trigger datetoken.Trigger, mutate func(*session)) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return apperr.ErrSessionNotFound
	}
	mutate(s)
	changed := s.plugin.Update(datetoken.Update{
		Text:        s.text,
		State:       s.state,
		Changed:     trigger,
		PointerDown: s.pointerDown,
	})
	var snap *Snapshot
	if changed {
		snap = m.snapshot(s)
	}
	m.mu.Unlock()

	if snap != nil && m.events != nil {
		m.events.Publish(sse.Event{Type: sse.DatesUpdated, Data: snap})
	}
	return nil
}

// Decorate computes the annotations of text for a one-off view without
// opening a session.
func (m *Manager) Decorate(text string, vs datetoken.ViewState) []Annotation {
	return m.render(m.dec.Decorate(text, vs))
}

func (m *Manager) snapshot(s *session) *Snapshot {
	return &Snapshot{
		Session:     s.id,
		Path:        s.path,
		LivePreview: s.state.LivePreview,
		Annotations: m.render(s.plugin.Annotations()),
	}
}

func (m *Manager) render(decos []datetoken.Annotation) []Annotation {
	out := make([]Annotation, len(decos))
	for i, a := range decos {
		out[i] = Annotation{Annotation: a}
		if a.Widget != nil {
			r := a.Widget.Render(m.locale)
			out[i].Display = &r
		}
	}
	return out
}
