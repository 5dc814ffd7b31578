package resume

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/resume.schema.json
var schemaJSON []byte

var (
	schemaOnce   sync.Once
	schemaLoaded *gojsonschema.Schema
	schemaErr    error

	validate = validator.New()
)

// FieldError 描述导入时单个字段的校验失败。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportError is returned by Import when the payload is not a valid
// ResumeDocument. Callers must leave their current document untouched.
type ImportError struct {
	Message string
	Fields  []FieldError
	Cause   error
}

func (e *ImportError) Error() string {
	var sb strings.Builder
	sb.WriteString("import resume: ")
	sb.WriteString(e.Message)
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	for _, f := range e.Fields {
		sb.WriteString(fmt.Sprintf("; %s: %s", f.Field, f.Message))
	}
	return sb.String()
}

func (e *ImportError) Unwrap() error {
	return e.Cause
}

// IsImportError reports whether err is (or wraps) an *ImportError.
func IsImportError(err error) bool {
	var ie *ImportError
	return errors.As(err, &ie)
}

// Export 将文档序列化为带缩进的 JSON，用于备份/下载。
// 与 Import 使用同一套字段校验，导出的内容总能被重新导入。
func Export(d *Document) ([]byte, error) {
	if d == nil {
		return nil, errors.New("export resume: nil document")
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("export resume: %w", err)
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export resume: %w", err)
	}
	return data, nil
}

// Import parses exactly the JSON shape produced by Export. The payload is
// checked against the embedded JSON Schema before decoding, then settings
// ranges and the photo data URI are validated.
func Import(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ImportError{Message: "empty document"}
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &ImportError{Message: "malformed json", Cause: err}
	}
	if !result.Valid() {
		fields := make([]FieldError, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			fields = append(fields, FieldError{Field: re.Field(), Message: re.Description()})
		}
		return nil, &ImportError{Message: "document does not match resume schema", Fields: fields}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ImportError{Message: "decode document", Cause: err}
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks field values (settings ranges, photo data URI).
// Failures are returned as *ImportError with one entry per field.
func (d *Document) Validate() error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]FieldError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, FieldError{Field: fe.Namespace(), Message: describeTag(fe)})
			}
			return &ImportError{Message: "invalid field values", Fields: fields}
		}
		return &ImportError{Message: "validate document", Cause: err}
	}
	return nil
}

// ValidateSettings checks presentation settings ranges.
func ValidateSettings(s Settings) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]FieldError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, FieldError{Field: fe.Namespace(), Message: describeTag(fe)})
			}
			return &ImportError{Message: "invalid settings", Fields: fields}
		}
		return fmt.Errorf("validate settings: %w", err)
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "datauri":
		return "must be a data URI"
	default:
		return "failed " + fe.Tag()
	}
}

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schemaLoaded, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
		if schemaErr != nil {
			schemaErr = fmt.Errorf("load resume schema: %w", schemaErr)
		}
	})
	return schemaLoaded, schemaErr
}
