package cms

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// One JSON Schema per block type. The payload is a tagged union: the block's
// type picks the schema, and nothing outside the schema's shape is allowed.
var blockSchemas = map[string]string{
	BlockHeader: `{
		"type": "object",
		"required": ["level", "text"],
		"additionalProperties": false,
		"properties": {
			"level": {"type": "integer", "minimum": 1, "maximum": 6},
			"text":  {"type": "string", "minLength": 1}
		}
	}`,
	BlockText: `{
		"type": "object",
		"required": ["text"],
		"additionalProperties": false,
		"properties": {"text": {"type": "string"}}
	}`,
	BlockMarkdown: `{
		"type": "object",
		"required": ["markdown"],
		"additionalProperties": false,
		"properties": {"markdown": {"type": "string"}}
	}`,
	BlockCode: `{
		"type": "object",
		"required": ["language", "code"],
		"additionalProperties": false,
		"properties": {
			"language": {"type": "string", "minLength": 1},
			"code":     {"type": "string"},
			"caption":  {"type": "string"}
		}
	}`,
	BlockTryIt: `{
		"type": "object",
		"required": ["language", "default_code"],
		"additionalProperties": false,
		"properties": {
			"language":      {"type": "string", "minLength": 1},
			"default_code":  {"type": "string"},
			"solution_code": {"type": "string"},
			"result_type":   {"type": "string", "enum": ["iframe", "console", "none"]}
		}
	}`,
	BlockImage: `{
		"type": "object",
		"required": ["url"],
		"additionalProperties": false,
		"properties": {
			"url":     {"type": "string", "minLength": 1},
			"alt":     {"type": "string"},
			"caption": {"type": "string"}
		}
	}`,
	BlockVideo: `{
		"type": "object",
		"required": ["url"],
		"additionalProperties": false,
		"properties": {
			"url":      {"type": "string", "minLength": 1},
			"caption":  {"type": "string"},
			"duration": {"type": "integer", "minimum": 0}
		}
	}`,
	BlockNote:    calloutSchema,
	BlockWarning: calloutSchema,
	BlockTip:     calloutSchema,
	BlockList: `{
		"type": "object",
		"required": ["items"],
		"additionalProperties": false,
		"properties": {
			"ordered": {"type": "boolean"},
			"items":   {"type": "array", "items": {"type": "string"}, "minItems": 1}
		}
	}`,
	BlockTable: `{
		"type": "object",
		"required": ["headers", "rows"],
		"additionalProperties": false,
		"properties": {
			"headers": {"type": "array", "items": {"type": "string"}, "minItems": 1},
			"rows": {
				"type": "array",
				"items": {"type": "array", "items": {"type": "string"}}
			}
		}
	}`,
	BlockDivider: `{
		"type": "object",
		"additionalProperties": false,
		"properties": {}
	}`,
	BlockQuiz: `{
		"type": "object",
		"required": ["question", "options", "answer"],
		"additionalProperties": false,
		"properties": {
			"question":    {"type": "string", "minLength": 1},
			"options":     {"type": "array", "items": {"type": "string"}, "minItems": 2},
			"answer":      {"type": "array", "items": {"type": "string"}, "minItems": 1},
			"explanation": {"type": "string"}
		}
	}`,
}

const calloutSchema = `{
	"type": "object",
	"required": ["text"],
	"additionalProperties": false,
	"properties": {
		"title": {"type": "string"},
		"text":  {"type": "string", "minLength": 1}
	}
}`

var compiledSchemas = func() map[string]*gojsonschema.Schema {
	m := make(map[string]*gojsonschema.Schema, len(blockSchemas))
	for typ, raw := range blockSchemas {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			panic(fmt.Sprintf("block schema %s: %v", typ, err))
		}
		m[typ] = s
	}
	return m
}()

// ValidateBlockPayload checks a payload against its type's schema and
// returns a ValidationError describing every violation.
func ValidateBlockPayload(blockType string, payload []byte) error {
	schema, ok := compiledSchemas[blockType]
	if !ok {
		return validationErrf("unknown block type %q", blockType)
	}
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return validationErrf("invalid %s payload: %v", blockType, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return validationErrf("invalid %s payload: %s", blockType, strings.Join(msgs, "; "))
	}
	return nil
}
