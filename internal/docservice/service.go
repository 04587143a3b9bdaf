// Package docservice runs commands against the documents of the vault.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/starford/explode/internal/apperr"
	"github.com/starford/explode/internal/checksum"
	"github.com/starford/explode/internal/commands"
	"github.com/starford/explode/internal/models"
	"github.com/starford/explode/internal/outline"
	"github.com/starford/explode/internal/parser"
	"github.com/starford/explode/internal/sse"
	"github.com/starford/explode/internal/storage"
)

// Publisher receives document change notifications.
type Publisher interface {
	PublishDocumentEvent(kind string, data sse.DocumentEvent)
}

// Service coordinates storage and the command registry.
type Service struct {
	store    storage.Provider
	commands *commands.Registry
	events   Publisher
	logger   *slog.Logger

	// mu serialises read-check-write cycles of Apply.
	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the sink for document.transformed events.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a document service.
func NewService(store storage.Provider, registry *commands.Registry, opts ...Option) *Service {
	s := &Service{store: store, commands: registry, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Commands returns the command registry.
func (s *Service) Commands() *commands.Registry {
	return s.commands
}

// List returns the documents under dir.
func (s *Service) List(_ context.Context, dir string) ([]models.DocumentInfo, error) {
	items, err := s.store.List(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return nonNilSlice(items), nil
}

// Get reads and parses the document at path.
func (s *Service) Get(_ context.Context, path string) (*models.Document, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	return s.buildDocument(path, data)
}

// Preview runs command on the document at path without writing it back.
func (s *Service) Preview(ctx context.Context, path, command string) (*models.Transform, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, path, command, data)
}

// Apply runs command on the document at path and replaces its content with
// the result. A non-empty ifMatch must name the current content, bare or
// as an entity tag.
func (s *Service) Apply(ctx context.Context, path, command, ifMatch string) (*models.Transform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && !checksum.Matches(data, ifMatch) {
		return nil, apperr.ErrConflict
	}

	t, err := s.run(ctx, path, command, data)
	if err != nil {
		return nil, err
	}
	if !t.Changed {
		return t, nil
	}
	if err := s.store.Write(path, []byte(t.Content)); err != nil {
		return nil, err
	}
	t.Written = true

	s.logger.Info("document transformed",
		slog.String("path", path),
		slog.String("command", command),
	)
	if s.events != nil {
		s.events.PublishDocumentEvent(sse.DocumentTransformed, sse.DocumentEvent{
			Path:     path,
			Command:  command,
			Checksum: t.Checksum,
		})
	}
	return t, nil
}

func (s *Service) run(ctx context.Context, path, command string, data []byte) (*models.Transform, error) {
	out, err := s.commands.Run(ctx, command, commands.Input{File: path, Text: string(data)})
	if err != nil {
		return nil, fmt.Errorf("docservice: %s: %w", path, err)
	}
	return &models.Transform{
		Path:     path,
		Command:  command,
		Content:  out,
		Checksum: checksum.String(out),
		Changed:  out != string(data),
	}, nil
}

func (s *Service) read(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *Service) buildDocument(path string, data []byte) (*models.Document, error) {
	res, err := parser.Split(data)
	if err != nil {
		return nil, err
	}
	doc := &models.Document{
		Path:        path,
		Content:     data,
		Body:        res.Body,
		Frontmatter: res.Frontmatter,
		Title:       res.Title,
		Links:       nonNilSlice(res.Links),
		Tags:        nonNilSlice(res.Tags),
		Exploded:    outline.IsExploded(res.Body),
		Checksum:    checksum.Sum(data),
	}
	if mt, err := s.store.ModTime(path); err == nil {
		doc.UpdatedAt = mt
	}
	return doc, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
