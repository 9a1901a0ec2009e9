// Package locator finds interactable elements on a page that cannot be
// trusted to keep its markup stable. A Locator is one strategy; a Ladder is an
// ordered list of strategies where the first success wins.
package locator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when no strategy could locate its target.
var ErrNotFound = errors.New("element not found")

// Kind tells the page how to interpret a selector query.
type Kind int

const (
	ByCSS Kind = iota
	ByXPath
)

func (k Kind) String() string {
	if k == ByXPath {
		return "xpath"
	}
	return "css"
}

// Selector is one structural locator descriptor.
type Selector struct {
	Query string
	Kind  Kind
}

func (s Selector) String() string { return s.Kind.String() + "=" + s.Query }

// CSS builds a CSS selector.
func CSS(query string) Selector { return Selector{Query: query, Kind: ByCSS} }

// XPath builds an XPath selector.
func XPath(query string) Selector { return Selector{Query: query, Kind: ByXPath} }

// Text matches any element whose own text is exactly s, after whitespace
// normalisation.
func Text(s string) Selector {
	return XPath(fmt.Sprintf("//*[normalize-space(text())=%s]", xpathLiteral(s)))
}

// HasText matches the innermost tag element whose text contains s.
func HasText(tag, s string) Selector {
	lit := xpathLiteral(s)
	return XPath(fmt.Sprintf("//%s[contains(normalize-space(.), %s)][not(.//%s[contains(normalize-space(.), %s)])]", tag, lit, tag, lit))
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
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
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// Page is the slice of browser behaviour the locators need.
type Page interface {
	// WaitVisible blocks until sel matches a visible element or ctx ends.
	WaitVisible(ctx context.Context, sel Selector) error
	Click(ctx context.Context, sel Selector) error
	Fill(ctx context.Context, sel Selector, value string) error
	Select(ctx context.Context, sel Selector, value string) error
	PressKey(ctx context.Context, key string) error
	// Evaluate runs script in the page and decodes its result into res.
	Evaluate(ctx context.Context, script string, res interface{}) error
}

// ActionKind is what to do with a located element.
type ActionKind int

const (
	ActClick ActionKind = iota
	ActFill
	ActSelect
)

func (k ActionKind) String() string {
	switch k {
	case ActFill:
		return "fill"
	case ActSelect:
		return "select"
	}
	return "click"
}

// Action is an interaction applied to the element a Locator finds.
type Action struct {
	Kind  ActionKind
	Value string
}

func Click() Action                { return Action{Kind: ActClick} }
func Fill(value string) Action     { return Action{Kind: ActFill, Value: value} }
func SelectOption(v string) Action { return Action{Kind: ActSelect, Value: v} }

// Locator is a single strategy for finding an element and acting on it.
type Locator interface {
	// Locate finds the target and applies act to it. It returns an error
	// wrapping ErrNotFound when the target is absent.
	Locate(ctx context.Context, p Page, act Action) error
	String() string
}

// Ladder evaluates locators strictly in order and stops at the first success.
type Ladder []Locator

// Apply returns the locator that succeeded. When every rung fails the error
// wraps ErrNotFound.
func (l Ladder) Apply(ctx context.Context, p Page, act Action) (Locator, error) {
	var last error
	for _, loc := range l {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := loc.Locate(ctx, p, act)
		if err == nil {
			return loc, nil
		}
		last = err
	}
	if last == nil {
		return nil, ErrNotFound
	}
	if errors.Is(last, ErrNotFound) {
		return nil, last
	}
	return nil, fmt.Errorf("%w: %v", ErrNotFound, last)
}

// KeyPress is a locator that presses a key on the focused element. It never
// reports NotFound and serves as the last rung for submit actions.
type KeyPress struct {
	Key     string
	Timeout time.Duration
}

func (k KeyPress) Locate(ctx context.Context, p Page, _ Action) error {
	keyCtx, cancel := withBudget(ctx, k.Timeout)
	defer cancel()
	return p.PressKey(keyCtx, k.Key)
}

func (k KeyPress) String() string { return "key:" + k.Key }
