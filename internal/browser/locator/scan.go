package locator

import (
	"context"
	"fmt"
	"time"

	json "github.com/json-iterator/go"
)

// Scan is the scripted fallback: a full-document query run inside the page
// that picks the first visible, structurally plausible element whose text
// (or attribute) matches, then interacts with it in place.
type Scan struct {
	Name string
	// Candidates is a CSS selector list restricting the tag category,
	// e.g. "option, div, li" for pickers or "select" for steppers.
	Candidates string
	// Text must be contained in (or equal to, with Exact) the element's
	// trimmed textContent, or the Attr attribute when set. Empty matches all.
	Text  string
	Exact bool
	Attr  string
	// Nth picks among the surviving matches in document order.
	Nth     int
	Timeout time.Duration
}

type scanParams struct {
	Candidates string `json:"candidates"`
	Text       string `json:"text"`
	Exact      bool   `json:"exact"`
	Attr       string `json:"attr"`
	Nth        int    `json:"nth"`
	Action     string `json:"action"`
	Value      string `json:"value"`
}

// Script renders the in-page program for act. It evaluates to true when an
// element was found and acted on.
func (s Scan) Script(act Action) (string, error) {
	params, err := json.Marshal(scanParams{
		Candidates: s.Candidates,
		Text:       s.Text,
		Exact:      s.Exact,
		Attr:       s.Attr,
		Nth:        s.Nth,
		Action:     act.Kind.String(),
		Value:      act.Value,
	})
	if err != nil {
		return "", fmt.Errorf("encoding scan parameters: %w", err)
	}
	return fmt.Sprintf(scanScript, params), nil
}

func (s Scan) Locate(ctx context.Context, p Page, act Action) error {
	script, err := s.Script(act)
	if err != nil {
		return err
	}
	ctx, cancel := withBudget(ctx, s.Timeout)
	defer cancel()

	var found bool
	if err := p.Evaluate(ctx, script, &found); err != nil {
		return fmt.Errorf("%w: scan %s failed: %v", ErrNotFound, s.Name, err)
	}
	if !found {
		return fmt.Errorf("%w: scan %s matched nothing", ErrNotFound, s.Name)
	}
	return nil
}

func (s Scan) String() string {
	return fmt.Sprintf("scan:%s[%s ~ %q]", s.Name, s.Candidates, s.Text)
}

// scanScript keeps only the innermost matches so a wrapper div holding the
// whole picker never wins over the row that carries the click handler.
const scanScript = `(function (p) {
  var nodes = Array.prototype.slice.call(document.querySelectorAll(p.candidates));
  var visible = function (el) {
    if (el.tagName === 'OPTION') { return !el.disabled; }
    var style = window.getComputedStyle(el);
    if (style.display === 'none' || style.visibility === 'hidden') { return false; }
    var r = el.getBoundingClientRect();
    return r.width > 0 && r.height > 0;
  };
  var read = function (el) {
    if (p.attr) { return el.getAttribute(p.attr) || ''; }
    return (el.textContent || '').trim();
  };
  var matches = nodes.filter(function (el) {
    if (!visible(el)) { return false; }
    if (!p.text) { return true; }
    var t = read(el);
    return p.exact ? t === p.text : t.indexOf(p.text) !== -1;
  });
  if (!p.attr) {
    matches = matches.filter(function (el) {
      return !matches.some(function (o) { return o !== el && el.contains(o); });
    });
  }
  var el = matches[p.nth];
  if (!el) { return false; }
  var fire = function (t) {
    t.dispatchEvent(new Event('input', { bubbles: true }));
    t.dispatchEvent(new Event('change', { bubbles: true }));
  };
  if (p.action === 'fill') {
    el.focus();
    el.value = p.value;
    fire(el);
    return true;
  }
  if (p.action === 'select') {
    var opts = Array.prototype.slice.call(el.options || []);
    var opt = opts.filter(function (o) { return o.value === p.value || o.textContent.trim() === p.value; })[0];
    if (!opt) { return false; }
    el.value = opt.value;
    fire(el);
    return true;
  }
  if (el.tagName === 'OPTION' && el.parentElement) {
    el.selected = true;
    fire(el.parentElement);
    return true;
  }
  el.scrollIntoView({ block: 'center' });
  el.click();
  return true;
})(%s)`
