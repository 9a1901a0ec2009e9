package extract

import "fmt"

// Result container and card classes rendered by the search widget.
const (
	ResultPanelID = "TVResultPanel"
	cardClasses   = ".TVSHotelResultItem, .TVResultListViewItem"
)

// collectScript reads candidate cards from the result panel only. An absent
// or empty panel yields an empty list.
const collectScript = `(() => {
  const panel = document.getElementById(%q);
  if (!panel || panel.children.length === 0) {
    return [];
  }
  return Array.from(panel.querySelectorAll(%q)).map((el) => {
    const rect = el.getBoundingClientRect();
    const text = el.innerText || el.textContent || '';
    return {
      class: String(el.className || ''),
      text: text.substring(0, %d),
      width: rect.width,
      height: rect.height,
    };
  });
})()`

// CollectScript returns the page script that captures cards, truncating each
// card's text to maxLen characters.
func CollectScript(maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultOptions().MaxTextLength
	}
	return fmt.Sprintf(collectScript, ResultPanelID, cardClasses, maxLen)
}
