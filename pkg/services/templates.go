package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/netforgehq/netforge/pkg/parsing"
	"github.com/netforgehq/netforge/pkg/persistence"
	"github.com/netforgehq/netforge/pkg/template"
)

// Templates manages config and parsing templates. Writes go to persistence
// and to the in-memory stores the runner reads, so runs always see current
// templates without a round trip to storage.
type Templates struct {
	persistence  persistence.Persistence
	configStore  *template.MemoryStore
	parsingStore *parsing.Store
	validate     *validator.Validate
}

// NewTemplates creates a template service bound to the runner's stores.
func NewTemplates(
	p persistence.Persistence,
	configStore *template.MemoryStore,
	parsingStore *parsing.Store,
	validate *validator.Validate,
) *Templates {
	return &Templates{
		persistence:  p,
		configStore:  configStore,
		parsingStore: parsingStore,
		validate:     validate,
	}
}

// SyncFromStorage loads every persisted template into the in-memory
// stores. Called once at startup, after the built-ins are registered.
func (s *Templates) SyncFromStorage(ctx context.Context) error {
	configs, err := s.persistence.ConfigTemplates().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config templates: %w", err)
	}

	for _, tmpl := range configs {
		s.configStore.Save(tmpl)
	}

	parsers, err := s.persistence.ParsingTemplates().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load parsing templates: %w", err)
	}

	for _, tmpl := range parsers {
		s.parsingStore.Save(tmpl)
	}

	return nil
}

// ListConfig returns all config templates known to the runner, built-ins
// included.
func (s *Templates) ListConfig(_ context.Context) []*template.ConfigTemplate {
	return s.configStore.All()
}

// ConfigByID returns one config template.
func (s *Templates) ConfigByID(_ context.Context, id string) (*template.ConfigTemplate, error) {
	return s.configStore.Template(id)
}

// SearchConfig filters config templates by device type and free text.
func (s *Templates) SearchConfig(_ context.Context, deviceType, query string) []*template.ConfigTemplate {
	if query != "" {
		return s.configStore.Search(query)
	}

	if deviceType != "" {
		return s.configStore.ByDeviceType(deviceType)
	}

	return s.configStore.All()
}

// SaveConfig validates and stores a config template.
func (s *Templates) SaveConfig(ctx context.Context, tmpl *template.ConfigTemplate) error {
	if tmpl == nil {
		return NewValidationError("SaveConfig", "", ErrTemplateNil)
	}

	if err := s.validate.Struct(tmpl); err != nil {
		return NewValidationError("SaveConfig", err.Error(), ErrInvalidRequest)
	}

	if problems := tmpl.Validate(); len(problems) > 0 {
		return NewValidationError("SaveConfig", strings.Join(problems, "; "), ErrInvalidRequest)
	}

	if err := s.persistence.ConfigTemplates().Save(ctx, tmpl); err != nil {
		return err
	}

	s.configStore.Save(tmpl)

	return nil
}

// DeleteConfig removes a config template from the store and storage.
// Built-ins only live in the store, so a missing storage row is fine.
func (s *Templates) DeleteConfig(ctx context.Context, id string) error {
	if err := s.configStore.Delete(id); err != nil {
		return err
	}

	err := s.persistence.ConfigTemplates().Delete(ctx, id)
	if err != nil && !errors.Is(err, persistence.ErrConfigTemplateNotFound) {
		return err
	}

	return nil
}

// RenderConfig renders a template's body with the given values without
// touching any device. Missing required parameters fail the preview.
func (s *Templates) RenderConfig(_ context.Context, id string, values map[string]any) (string, error) {
	tmpl, err := s.configStore.Template(id)
	if err != nil {
		return "", err
	}

	if missing := tmpl.MissingParameters(values); len(missing) > 0 {
		return "", NewValidationError("RenderConfig",
			"missing required parameters: "+strings.Join(missing, ", "), ErrInvalidRequest)
	}

	return tmpl.Render(values), nil
}

// ListParsing returns all parsing templates known to the runner.
func (s *Templates) ListParsing(_ context.Context) []*parsing.Template {
	return s.parsingStore.All()
}

// ParsingByID returns one parsing template.
func (s *Templates) ParsingByID(_ context.Context, id string) (*parsing.Template, error) {
	return s.parsingStore.Template(id)
}

// SaveParsing validates and stores a parsing template.
func (s *Templates) SaveParsing(ctx context.Context, tmpl *parsing.Template) error {
	if tmpl == nil {
		return NewValidationError("SaveParsing", "", ErrTemplateNil)
	}

	if err := s.validate.Struct(tmpl); err != nil {
		return NewValidationError("SaveParsing", err.Error(), ErrInvalidRequest)
	}

	if err := s.persistence.ParsingTemplates().Save(ctx, tmpl); err != nil {
		return err
	}

	s.parsingStore.Save(tmpl)

	return nil
}

// DeleteParsing removes a parsing template from the store and storage.
func (s *Templates) DeleteParsing(ctx context.Context, id string) error {
	if err := s.parsingStore.Delete(id); err != nil {
		return err
	}

	err := s.persistence.ParsingTemplates().Delete(ctx, id)
	if err != nil && !errors.Is(err, persistence.ErrParsingTemplateNotFound) {
		return err
	}

	return nil
}
