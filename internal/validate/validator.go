// Package validate checks request bodies against embedded JSON Schemas
// before they are decoded into request structs.
package validate

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/microearn/backend/internal/models"
)

// Schema names, matching the files under schemas/.
const (
	CreateTask     = "create_task"
	TaskStatus     = "task_status"
	Submission     = "submission"
	Review         = "review"
	Payment        = "payment"
	PaymentConfirm = "payment_confirm"
	Withdrawal     = "withdrawal"
	SelectRole     = "select_role"
	SignIn         = "signin"
	Login          = "login"
)

const (
	maxBodyBytes  = 1 << 20
	schemaBaseURL = "https://microearn.dev/schemas/"
)

//go:embed schemas/*.json
var schemaFS embed.FS

type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// New compiles every embedded schema.
func New() (*Validator, error) {
	entries, err := fs.ReadDir(schemaFS, "schemas")
	if err != nil {
		return nil, fmt.Errorf("read embedded schemas: %w", err)
	}
	schemas := make(map[string]*jsonschema.Schema, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		data, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", e.Name(), err)
		}
		id := schemaBaseURL + name + ".json"
		c := jsonschema.NewCompiler()
		c.AssertFormat = true
		if err := c.AddResource(id, strings.NewReader(string(data))); err != nil {
			return nil, fmt.Errorf("add schema %q: %w", name, err)
		}
		schemas[name], err = c.Compile(id)
		if err != nil {
			return nil, fmt.Errorf("compile schema %q: %w", name, err)
		}
	}
	return &Validator{schemas: schemas}, nil
}

// Check validates raw JSON against the named schema.
func (v *Validator) Check(schema string, raw []byte) error {
	s, ok := v.schemas[schema]
	if !ok {
		return fmt.Errorf("unknown schema %q", schema)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", models.ErrValidation, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	return nil
}

// Decode reads a request body, validates it, and unmarshals it into dst.
func (v *Validator) Decode(body io.Reader, schema string, dst any) error {
	raw, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", models.ErrValidation, err)
	}
	if err := v.Check(schema, raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	return nil
}
