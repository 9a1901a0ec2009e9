package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultPage = `<html><body>
<div class="TVSHotelResultItem">outside the panel*<span>1 000 руб</span></div>
<div id="TVResultPanel">
  <div class="TVSHotelResultItem card">
    <div>Beach Resort*Кемер, 4.8</div>
    <div>125.000&nbsp;руб</div>
    <div>7 ночей</div><div>15.02.2026</div>
    <div>All Inclusive</div><div>Anex Tour</div>
    <script>var x = 1;</script>
  </div>
  <div class="TVResultListViewItem" style="display: none">Hidden*<div>5 000 руб</div></div>
  <div class="TVResultListViewItem"><p>Поделиться,</p><p>Найти</p></div>
</div>
</body></html>`

func TestCardsFromHTML(t *testing.T) {
	t.Run("should read cards from the result panel only", func(t *testing.T) {
		cards, err := CardsFromHTML(strings.NewReader(resultPage), 0)
		require.NoError(t, err)
		require.Len(t, cards, 2)

		assert.True(t, cards[0].Unmeasured)
		assert.Equal(t, "TVSHotelResultItem card", cards[0].Class)
		assert.Equal(t, "Beach Resort*Кемер, 4.8\n125.000 руб\n7 ночей\n15.02.2026\nAll Inclusive\nAnex Tour", cards[0].Text)
	})

	t.Run("should feed the extractor end to end", func(t *testing.T) {
		cards, err := CardsFromHTML(strings.NewReader(resultPage), 0)
		require.NoError(t, err)

		got := New(DefaultOptions(), nil).Extract(cards, "Турция")
		require.Len(t, got, 1)
		assert.Equal(t, "Beach Resort", got[0].Hotel)
		assert.Equal(t, "125000 руб", got[0].Price)
	})

	t.Run("should return nothing when the panel is missing or empty", func(t *testing.T) {
		cards, err := CardsFromHTML(strings.NewReader(`<div id="TVResultPanel"></div>`), 0)
		require.NoError(t, err)
		assert.Empty(t, cards)

		cards, err = CardsFromHTML(strings.NewReader(`<div class="TVSHotelResultItem">A*</div>`), 0)
		require.NoError(t, err)
		assert.Empty(t, cards)
	})

	t.Run("should truncate long card text", func(t *testing.T) {
		cards, err := CardsFromHTML(strings.NewReader(resultPage), 5)
		require.NoError(t, err)
		assert.Equal(t, "Beach", cards[0].Text)
	})
}
