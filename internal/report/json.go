package report

import (
	"io"

	json "github.com/goccy/go-json"

	"github.com/privsig/gpcscan/internal/model"
)

// JSONWriter outputs the evidence report as JSON, the canonical artifact
// for tool integration and persistence.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output.
	indent bool

	indentPrefix string
	indentString string

	// validate runs the embedded schema over the output before writing.
	validate bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// WithSchemaValidation makes Write fail when the serialized report does
// not satisfy the embedded report schema.
func WithSchemaValidation() JSONWriterOption {
	return func(w *JSONWriter) {
		w.validate = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(report *model.EvidenceReport) (int, error) {
	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(report, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return 0, err
	}

	if w.validate {
		if err := ValidateReportJSON(data); err != nil {
			return 0, err
		}
	}

	// Trailing newline for terminal output.
	data = append(data, '\n')
	return w.output.Write(data)
}
