package markdown

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// ErrFrontMatterInvalid anchors errors.Is checks for schema violations.
var ErrFrontMatterInvalid = errors.New("markdown: front matter invalid")

// ErrSchemaInvalid indicates the author-declared schema cannot be compiled.
var ErrSchemaInvalid = errors.New("markdown: front matter schema invalid")

// ValidationIssue captures a single front-matter validation failure.
type ValidationIssue struct {
	Location string
	Message  string
}

// FrontMatterError surfaces schema violations with instance locations so the
// offending keys can be reported per file.
type FrontMatterError struct {
	Issues []ValidationIssue
	Cause  error
}

func (e *FrontMatterError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrFrontMatterInvalid.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := strings.TrimSpace(issue.Location)
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *FrontMatterError) Unwrap() error {
	return ErrFrontMatterInvalid
}

// FrontMatterPolicy is a compiled front-matter contract: required keys plus an
// optional JSON schema for custom fields. Compile once per scan and reuse.
type FrontMatterPolicy struct {
	require []string
	schema  *jsonschema.Schema
}

// CompileFrontMatterPolicy normalises and compiles the author-declared policy.
// Schema accepts a JSON Schema document or the {fields: [...]} shorthand; nil
// or empty inputs yield a policy that only enforces required keys.
func CompileFrontMatterPolicy(require []string, schema map[string]any) (*FrontMatterPolicy, error) {
	policy := &FrontMatterPolicy{}
	for _, key := range require {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			policy.require = append(policy.require, trimmed)
		}
	}

	normalized := normalizeSchema(schema)
	if normalized == nil {
		return policy, nil
	}

	encoded, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("frontmatter.json", bytes.NewReader(encoded)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	compiled, err := compiler.Compile("frontmatter.json")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	policy.schema = compiled
	return policy, nil
}

// Validate checks a document's front matter against the compiled policy.
func (p *FrontMatterPolicy) Validate(fm interfaces.FrontMatter) error {
	if p == nil {
		return nil
	}

	issues := []ValidationIssue{}
	for _, key := range p.require {
		if _, ok := fm.Raw[key]; !ok {
			issues = append(issues, ValidationIssue{
				Location: "/" + key,
				Message:  "required key is missing",
			})
		}
	}

	var cause error
	if p.schema != nil {
		payload, _ := jsonSafe(fm.Raw).(map[string]any)
		if payload == nil {
			payload = map[string]any{}
		}
		if err := p.schema.Validate(payload); err != nil {
			cause = err
			var validationErr *jsonschema.ValidationError
			if errors.As(err, &validationErr) {
				issues = append(issues, collectValidationIssues(validationErr)...)
			} else {
				issues = append(issues, ValidationIssue{Message: err.Error()})
			}
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return &FrontMatterError{Issues: issues, Cause: cause}
}

// normalizeSchema converts a schema definition into a JSON schema, accepting
// the {fields: [{name, type, required}, ...]} shorthand used in definitions.
func normalizeSchema(schema map[string]any) map[string]any {
	if len(schema) == 0 {
		return nil
	}
	if isJSONSchema(schema) {
		return jsonSafe(schema).(map[string]any)
	}
	fields, ok := schema["fields"]
	if !ok {
		return nil
	}
	properties, required := normalizeFields(fields)
	if len(properties) == 0 {
		return nil
	}
	normalized := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if override, ok := schema["additionalProperties"]; ok {
		if allowed, ok := override.(bool); ok {
			normalized["additionalProperties"] = allowed
		}
	}
	if len(required) > 0 {
		normalized["required"] = required
	}
	return normalized
}

func isJSONSchema(schema map[string]any) bool {
	for _, marker := range []string{"$schema", "type", "properties", "oneOf", "anyOf", "allOf"} {
		if _, ok := schema[marker]; ok {
			return true
		}
	}
	return false
}

func normalizeFields(fields any) (map[string]any, []string) {
	properties := make(map[string]any)
	required := make([]string, 0)

	entries, ok := fields.([]any)
	if !ok {
		return properties, required
	}
	for _, entry := range entries {
		fieldMap, ok := jsonSafe(entry).(map[string]any)
		if !ok {
			if name, ok := entry.(string); ok {
				fieldMap = map[string]any{"name": name}
			} else {
				continue
			}
		}
		name, _ := fieldMap["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if nested, ok := fieldMap["schema"].(map[string]any); ok {
			properties[name] = nested
		} else if fieldType, ok := fieldMap["type"].(string); ok && normalizeJSONType(fieldType) != "" {
			properties[name] = map[string]any{"type": normalizeJSONType(fieldType)}
		} else {
			properties[name] = map[string]any{}
		}
		if flag, ok := fieldMap["required"].(bool); ok && flag {
			required = append(required, name)
		}
	}
	return properties, required
}

func normalizeJSONType(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "string", "number", "integer", "boolean", "object", "array", "null":
		return strings.ToLower(strings.TrimSpace(value))
	default:
		return ""
	}
}

// jsonSafe coerces YAML-decoded values into the JSON type universe the schema
// validator accepts: string-keyed maps, slices, strings, numbers, booleans.
func jsonSafe(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			out[key] = jsonSafe(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			out[fmt.Sprint(key)] = jsonSafe(val)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, val := range typed {
			out[i] = jsonSafe(val)
		}
		return out
	case []string:
		out := make([]any, len(typed))
		for i, val := range typed {
			out[i] = val
		}
		return out
	case time.Time:
		return typed.Format(time.RFC3339)
	case int:
		return float64(typed)
	case int64:
		return float64(typed)
	case float32:
		return float64(typed)
	case nil, bool, string, float64:
		return typed
	default:
		return fmt.Sprint(typed)
	}
}

func collectValidationIssues(err *jsonschema.ValidationError) []ValidationIssue {
	if err == nil {
		return nil
	}
	issues := []ValidationIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
