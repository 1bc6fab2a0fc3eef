package report

import (
	_ "embed"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/kaptinlin/jsonschema"
)

//go:embed report_schema.json
var reportSchema []byte

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiled, compileErr = compiler.Compile(reportSchema)
	})
	if compileErr != nil {
		return nil, fmt.Errorf("compile report schema: %w", compileErr)
	}
	return compiled, nil
}

// ValidateReportJSON checks a serialized evidence report against the
// embedded JSON Schema. Consumers parsing reports programmatically rely
// on the shape being stable even when the violation list is empty.
func ValidateReportJSON(data []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}
	var instance interface{}
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("report schema validation failed: %w", err)
	}
	result := s.Validate(instance)
	if !result.IsValid() {
		return fmt.Errorf("report schema validation failed: %v", result.Errors)
	}
	return nil
}
