// Package file provides file-based persistence: one JSON document per
// entity under a root directory.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/netforgehq/netforge/pkg/persistence"
)

// Persistence implements persistence.Persistence on the file system.
type Persistence struct {
	root             string
	workflowRepo     *WorkflowRepository
	configTmplRepo   *ConfigTemplateRepository
	parsingTmplRepo  *ParsingTemplateRepository
}

// NewPersistence creates a file persistence layer rooted at the given
// directory. A "file://" prefix is stripped so the same URL can select the
// backend and locate it.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:            cleanRoot,
		workflowRepo:    NewWorkflowRepository(cleanRoot),
		configTmplRepo:  NewConfigTemplateRepository(cleanRoot),
		parsingTmplRepo: NewParsingTemplateRepository(cleanRoot),
	}
}

// Workflows returns the workflow repository.
func (fp *Persistence) Workflows() persistence.WorkflowRepository {
	return fp.workflowRepo
}

// ConfigTemplates returns the config template repository.
func (fp *Persistence) ConfigTemplates() persistence.ConfigTemplateRepository {
	return fp.configTmplRepo
}

// ParsingTemplates returns the parsing template repository.
func (fp *Persistence) ParsingTemplates() persistence.ParsingTemplateRepository {
	return fp.parsingTmplRepo
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. Nothing to release for files.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}
