package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/tourscout/internal/browser/locator"
)

func TestSetValueScript(t *testing.T) {
	t.Run("should resolve css selectors with querySelector", func(t *testing.T) {
		script, err := setValueScript(locator.CSS(`select[name*="night"]`), "7")
		require.NoError(t, err)
		assert.Contains(t, script, `"query":"select[name*=\"night\"]"`)
		assert.Contains(t, script, `"xpath":false`)
		assert.Contains(t, script, `"value":"7"`)
	})

	t.Run("should mark xpath selectors", func(t *testing.T) {
		script, err := setValueScript(locator.Text("Египет"), "x")
		require.NoError(t, err)
		assert.Contains(t, script, `"xpath":true`)
		assert.NotContains(t, script, "%s")
	})
}

func TestQueryOption(t *testing.T) {
	assert.NotNil(t, queryOption(locator.CSS(".a")))
	assert.NotNil(t, queryOption(locator.XPath("//a")))
}
