package browser

import (
	"fmt"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/tourscout/internal/browser/locator"
)

// setValueTemplate assigns a value through the native setter so framework
// bindings observe it, then fires input and change. For a select it prefers
// an option whose value or label matches.
const setValueTemplate = `(() => {
  const p = %s;
  let el = null;
  if (p.xpath) {
    el = document.evaluate(p.query, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
  } else {
    el = document.querySelector(p.query);
  }
  if (!el) return false;
  let value = p.value;
  if (el.tagName === 'SELECT') {
    const opt = Array.from(el.options).find((o) => o.value === value || o.textContent.trim() === value);
    if (opt) value = opt.value;
  }
  const proto = Object.getPrototypeOf(el);
  const desc = Object.getOwnPropertyDescriptor(proto, 'value');
  if (desc && desc.set) { desc.set.call(el, value); } else { el.value = value; }
  el.dispatchEvent(new Event('input', { bubbles: true }));
  el.dispatchEvent(new Event('change', { bubbles: true }));
  return true;
})()`

type setValueParams struct {
	Query string `json:"query"`
	XPath bool   `json:"xpath"`
	Value string `json:"value"`
}

func setValueScript(sel locator.Selector, value string) (string, error) {
	params, err := json.Marshal(setValueParams{Query: sel.Query, XPath: sel.Kind == locator.ByXPath, Value: value})
	if err != nil {
		return "", fmt.Errorf("encoding value parameters: %w", err)
	}
	return fmt.Sprintf(setValueTemplate, params), nil
}
