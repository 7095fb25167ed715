package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Field names of the clipboard payload.
const (
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldDate        = "date"
	FieldCategory    = "category"
	FieldPurchaser   = "purchaser"
	FieldBank        = "bank"
	FieldAccount     = "account"
)

// RecordFields lists the payload fields in clipboard order.
var RecordFields = []string{
	FieldDescription, FieldAmount, FieldDate, FieldCategory,
	FieldPurchaser, FieldBank, FieldAccount,
}

var (
	ErrInvalidPayload = errors.New("clipboard payload is not valid JSON")
	ErrNotObject      = errors.New("clipboard payload is not a JSON object")
)

type (
	// Record is one expense copied from the budgeting app. Every field is
	// kept as text because it is typed into the form verbatim.
	Record struct {
		Description string
		Amount      string
		Date        string // YYYY-MM-DD
		Category    string
		Purchaser   string
		Bank        string
		Account     string
	}
)

// ParseRecord decodes clipboard text into a Record. Missing or null fields
// become "". String values are kept byte for byte. Only malformed JSON or a
// non-object payload is an error; shape problems are returned as warnings.
func ParseRecord(raw []byte) (Record, []string, error) {
	raw = bytes.TrimSpace(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")))

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Record{}, nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return Record{}, nil, fmt.Errorf("%w: trailing data after object", ErrInvalidPayload)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return Record{}, nil, fmt.Errorf("%w: got %s", ErrNotObject, jsonKind(doc))
	}

	warnings := CheckShape(doc)

	field := func(name string) string {
		return stringify(obj[name])
	}
	rec := Record{
		Description: field(FieldDescription),
		Amount:      field(FieldAmount),
		Date:        field(FieldDate),
		Category:    field(FieldCategory),
		Purchaser:   field(FieldPurchaser),
		Bank:        field(FieldBank),
		Account:     field(FieldAccount),
	}
	return rec, warnings, nil
}

// FormDate returns the date in the form's compact YYYYMMDD layout.
func (r Record) FormDate() string {
	return strings.ReplaceAll(r.Date, "-", "")
}

// Get returns a field by payload name.
func (r Record) Get(name string) string {
	switch name {
	case FieldDescription:
		return r.Description
	case FieldAmount:
		return r.Amount
	case FieldDate:
		return r.Date
	case FieldCategory:
		return r.Category
	case FieldPurchaser:
		return r.Purchaser
	case FieldBank:
		return r.Bank
	case FieldAccount:
		return r.Account
	}
	return ""
}

// Missing returns the payload fields that are empty.
func (r Record) Missing() []string {
	var out []string
	for _, name := range RecordFields {
		if r.Get(name) == "" {
			out = append(out, name)
		}
	}
	return out
}

// CategoryPath returns the tree labels to click, top-down, normalized for
// matching the page text. An empty category contributes nothing.
func (r Record) CategoryPath(prefix []string) []string {
	path := make([]string, 0, len(prefix)+1)
	for _, label := range prefix {
		path = append(path, normalizeLabel(label))
	}
	if label := normalizeLabel(r.Category); label != "" {
		path = append(path, label)
	}
	return path
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// normalizeLabel composes Hangul jamo so text matches the page's NFC labels.
func normalizeLabel(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	}
	return "object"
}
