package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Kind int

const (
	CSS Kind = iota
	XPath
)

func (k Kind) String() string {
	if k == XPath {
		return "xpath"
	}
	return "css"
}

// Strategy is one way of locating an element, with its own wait budget.
type Strategy struct {
	Kind    Kind
	Query   string
	Timeout time.Duration
}

func (s Strategy) String() string {
	return fmt.Sprintf("%s(%s)", s.Kind, s.Query)
}

// Locator maps a logical field to strategies tried in priority order.
type Locator struct {
	Field      string
	Strategies []Strategy
}

func ByName(name string, timeout time.Duration) Strategy {
	return Strategy{Kind: CSS, Query: fmt.Sprintf(`[name=%q]`, name), Timeout: timeout}
}

func ByID(id string, timeout time.Duration) Strategy {
	return Strategy{Kind: CSS, Query: fmt.Sprintf(`[id=%q]`, id), Timeout: timeout}
}

func ByXPath(expr string, timeout time.Duration) Strategy {
	return Strategy{Kind: XPath, Query: expr, Timeout: timeout}
}

// TextContains matches tag elements whose own text contains text. Use "*"
// for any tag.
func TextContains(tag, text string, timeout time.Duration) Strategy {
	return ByXPath(fmt.Sprintf("//%s[contains(text(), %s)]", tag, Literal(text)), timeout)
}

// HrefContains matches links whose href contains fragment.
func HrefContains(fragment string, timeout time.Duration) Strategy {
	return ByXPath(fmt.Sprintf("//a[contains(@href, %s)]", Literal(fragment)), timeout)
}

// Literal quotes s as an XPath 1.0 string literal. XPath has no escapes,
// so strings holding both quote kinds are built with concat().
func Literal(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// Lookup tries each strategy of loc in order and returns the first match.
// When all fail the error wraps ErrNotFound and every attempt's cause.
func Lookup(ctx context.Context, doc Document, loc Locator) (Element, error) {
	if len(loc.Strategies) == 0 {
		return nil, fmt.Errorf("%w: %s: no strategies", ErrNotFound, loc.Field)
	}
	var errs []error
	for _, s := range loc.Strategies {
		el, err := doc.Find(ctx, s)
		if err == nil {
			return el, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		errs = append(errs, fmt.Errorf("%s: %w", s, err))
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, loc.Field, errors.Join(errs...))
}
