// Package loader loads data schema definitions from YAML documents into a store.
package loader

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/joshmarlow/data-schema/pkg/audit"
	"github.com/joshmarlow/data-schema/pkg/schema"
	"github.com/joshmarlow/data-schema/pkg/server/store"
)

var errDryRun = errors.New("dry run")

// LoadResult lists the schemas a load created and the schemas whose fields it synced
type LoadResult struct {
	Created []string `json:"created"`
	Updated []string `json:"updated"`
}

// Loader applies schema definitions to a store
type Loader struct {
	store   store.DataSchemaStore
	logger  *zap.Logger
	auditor *audit.Logger
	subject string
	dryRun  bool
}

// NewLoader creates a new schema loader
func NewLoader(s store.DataSchemaStore) *Loader {
	return &Loader{store: s, logger: zap.NewNop()}
}

// WithLogger sets the logger used to report loaded schemas
func (l *Loader) WithLogger(logger *zap.Logger) *Loader {
	l.logger = logger
	return l
}

// WithAudit records a load event per schema on behalf of subject. Dry runs are not recorded.
func (l *Loader) WithAudit(auditor *audit.Logger, subject string) *Loader {
	l.auditor = auditor
	l.subject = subject
	return l
}

// WithDryRun validates and applies the definitions, then rolls the transaction back
func (l *Loader) WithDryRun(dryRun bool) *Loader {
	l.dryRun = dryRun
	return l
}

// Parse reads schema definitions from a YAML document. The document is either a list of
// schemas or a single schema.
func Parse(r io.Reader) ([]schema.DataSchema, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var defs []schema.DataSchema
		if err := root.Decode(&defs); err != nil {
			return nil, err
		}
		return defs, nil
	case yaml.MappingNode:
		var def schema.DataSchema
		if err := root.Decode(&def); err != nil {
			return nil, err
		}
		return []schema.DataSchema{def}, nil
	default:
		return nil, fmt.Errorf("line %d: expected a schema or a list of schemas", root.Line)
	}
}

// Validate checks every definition and that no name is defined twice
func Validate(defs []schema.DataSchema) error {
	var result *multierror.Error
	seen := make(map[string]bool, len(defs))
	for i := range defs {
		if err := defs[i].Validate(); err != nil {
			result = multierror.Append(result, err)
		}
		if defs[i].Name == "" {
			continue
		}
		if seen[defs[i].Name] {
			result = multierror.Append(result, fmt.Errorf("%w: schema %q is defined more than once",
				schema.ErrInvalidSchema, defs[i].Name))
		}
		seen[defs[i].Name] = true
	}
	return result.ErrorOrNil()
}

// LoadFromReader parses and loads schema definitions from an io.Reader
func (l *Loader) LoadFromReader(r io.Reader) (*LoadResult, error) {
	defs, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema definitions: %w", err)
	}
	return l.Load(defs)
}

// LoadFromString parses and loads schema definitions from a string
func (l *Loader) LoadFromString(text string) (*LoadResult, error) {
	return l.LoadFromReader(strings.NewReader(text))
}

// Load creates the schemas that don't exist and syncs the fields of the ones that do, in one
// transaction. Nothing is loaded if any definition is invalid.
func (l *Loader) Load(defs []schema.DataSchema) (*LoadResult, error) {
	if err := Validate(defs); err != nil {
		return nil, err
	}

	result := &LoadResult{Created: []string{}, Updated: []string{}}
	failed := ""
	err := l.store.Transaction(func(tx store.DataSchemaStore) error {
		var err error
		failed, err = applyAll(tx, defs, result)
		if err == nil && l.dryRun {
			return errDryRun
		}
		return err
	})
	if err != nil && !(l.dryRun && errors.Is(err, errDryRun)) {
		if failed != "" {
			l.audit(failed, err)
		}
		return nil, err
	}
	if !l.dryRun {
		l.auditAll(result)
	}

	l.logger.Info("schemas loaded",
		zap.Strings("created", result.Created),
		zap.Strings("updated", result.Updated),
		zap.Bool("dry_run", l.dryRun),
	)
	return result, nil
}

// applyAll applies each definition in order, recording the outcome in result. On failure it
// returns the name of the schema that failed.
func applyAll(tx store.DataSchemaStore, defs []schema.DataSchema, result *LoadResult) (string, error) {
	for i := range defs {
		created, err := apply(tx, &defs[i])
		if err != nil {
			return defs[i].Name, fmt.Errorf("schema %q: %w", defs[i].Name, err)
		}
		if created {
			result.Created = append(result.Created, defs[i].Name)
		} else {
			result.Updated = append(result.Updated, defs[i].Name)
		}
	}
	return "", nil
}

func (l *Loader) auditAll(result *LoadResult) {
	for _, name := range result.Created {
		l.audit(name, nil)
	}
	for _, name := range result.Updated {
		l.audit(name, nil)
	}
}

func (l *Loader) audit(name string, err error) {
	if l.auditor == nil {
		return
	}
	event := audit.SchemaChangeEvent{
		Subject:   l.subject,
		Schema:    name,
		Operation: audit.OperationLoad,
		Success:   err == nil,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	l.auditor.Log(event)
}

func apply(tx store.DataSchemaStore, def *schema.DataSchema) (bool, error) {
	_, err := tx.FetchDataSchema(def.Name)
	switch {
	case errors.Is(err, store.ErrDataSchemaNotFound):
		return true, tx.CreateDataSchema(def)
	case err != nil:
		return false, err
	default:
		return false, tx.SyncFieldSchemas(def.Name, def.Fields)
	}
}
