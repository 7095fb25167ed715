package core

import (
	"errors"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// recordSchema describes the payload the budgeting app writes. Nothing is
// required: a mismatch is reported, never enforced.
const recordSchema = `{
	"type": "object",
	"properties": {
		"description": {"type": ["string", "null"]},
		"amount":      {"type": ["number", "string", "null"], "pattern": "^-?[0-9][0-9,]*(\\.[0-9]+)?$"},
		"date":        {"type": ["string", "null"], "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
		"category":    {"type": ["string", "null"]},
		"purchaser":   {"type": ["string", "null"]},
		"bank":        {"type": ["string", "null"]},
		"account":     {"type": ["string", "number", "null"]}
	}
}`

var compiledRecordSchema = jsonschema.MustCompileString("record.json", recordSchema)

// CheckShape validates a decoded payload (numbers as json.Number) and returns
// one human readable line per violation.
func CheckShape(doc any) []string {
	err := compiledRecordSchema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	var out []string
	collectLeaves(ve, &out)
	sort.Strings(out)
	return out
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, fmt.Sprintf("%s: %s", loc, ve.Message))
		return
	}
	for _, c := range ve.Causes {
		collectLeaves(c, out)
	}
}
