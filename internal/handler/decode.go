package handler

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v5"

	appI18n "github.com/pavelanni/docent/internal/i18n"
)

//go:embed schemas/*.json
var schemaFS embed.FS

type schemas struct {
	ask       *jsonschema.Schema
	challenge *jsonschema.Schema
}

func loadSchemas() (*schemas, error) {
	compiler := jsonschema.NewCompiler()
	compile := func(name string) (*jsonschema.Schema, error) {
		b, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
		s, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		return s, nil
	}

	ask, err := compile("ask.json")
	if err != nil {
		return nil, err
	}
	challenge, err := compile("challenge.json")
	if err != nil {
		return nil, err
	}
	return &schemas{ask: ask, challenge: challenge}, nil
}

// validateJSON checks that data is JSON matching schema.
func validateJSON(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal body: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("body does not match schema: %w", err)
	}
	return nil
}

// decode reads a JSON body, validates its shape and unmarshals it into dst.
// On failure it writes a 400 response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema, dst any) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes))
	if err == nil {
		err = validateJSON(schema, data)
	}
	if err == nil {
		err = json.Unmarshal(data, dst)
	}
	if err != nil {
		h.logger.Info("invalid request body", "path", r.URL.Path, "error", err)
		h.writeMessage(w, http.StatusBadRequest, appI18n.TOr(r.Context(), "InvalidRequest", "Invalid request body"))
		return false
	}
	return true
}
