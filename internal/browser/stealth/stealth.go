// Package stealth makes an automated tab present as an ordinary desktop
// browser of a fixed locale.
package stealth

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tourscout/internal/config"
)

//go:embed evasions.js
var evasionsScript string

// Persona defines the browser characteristics to emulate.
type Persona struct {
	UserAgent string
	Languages []string
	Timezone  string
	Locale    string
	Width     int
	Height    int
}

// DefaultPersona is a Russian-locale desktop Chrome.
var DefaultPersona = Persona{
	UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/144.0.0.0 Safari/537.36",
	Languages: []string{"ru-RU", "ru", "en-US", "en"},
	Timezone:  "Europe/Moscow",
	Locale:    "ru-RU",
	Width:     1440,
	Height:    900,
}

// FromConfig builds a persona from the browser settings, keeping defaults for
// anything left empty.
func FromConfig(cfg config.BrowserConfig) Persona {
	p := DefaultPersona
	if cfg.UserAgent != "" {
		p.UserAgent = cfg.UserAgent
	}
	if cfg.Timezone != "" {
		p.Timezone = cfg.Timezone
	}
	if cfg.Locale != "" {
		p.Locale = cfg.Locale
		p.Languages = languagesFor(cfg.Locale)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		p.Width, p.Height = cfg.Width, cfg.Height
	}
	return p
}

// languagesFor expands "ru-RU" into ["ru-RU", "ru"], with English as the
// trailing fallback.
func languagesFor(locale string) []string {
	langs := []string{locale}
	if base, _, ok := strings.Cut(locale, "-"); ok {
		langs = append(langs, base)
	}
	if !strings.HasPrefix(locale, "en") {
		langs = append(langs, "en-US", "en")
	}
	return langs
}

// AcceptLanguage renders the Accept-Language header with descending weights.
func (p Persona) AcceptLanguage() string {
	parts := make([]string, 0, len(p.Languages))
	for i, l := range p.Languages {
		if i == 0 {
			parts = append(parts, l)
			continue
		}
		q := 1.0 - float64(i)*0.1
		if q < 0.1 {
			q = 0.1
		}
		parts = append(parts, fmt.Sprintf("%s;q=%.1f", l, q))
	}
	return strings.Join(parts, ",")
}

// Apply constructs the CDP actions that install the persona on a tab. They
// must run before the first navigation.
func Apply(p Persona, logger *zap.Logger) chromedp.Tasks {
	logger.Debug("Applying browser persona",
		zap.String("user_agent", p.UserAgent),
		zap.String("locale", p.Locale),
		zap.String("timezone", p.Timezone))

	accept := p.AcceptLanguage()
	return chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(p.UserAgent).WithAcceptLanguage(accept),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if _, err := page.AddScriptToEvaluateOnNewDocument(personaPrelude(p) + evasionsScript).Do(ctx); err != nil {
				return fmt.Errorf("failed to inject evasions script: %w", err)
			}
			return nil
		}),
		emulation.SetTimezoneOverride(p.Timezone),
		emulation.SetLocaleOverride().WithLocale(p.Locale),
		emulation.SetDeviceMetricsOverride(int64(p.Width), int64(p.Height), 1, false),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": accept}),
	}
}

func personaPrelude(p Persona) string {
	quoted := make([]string, len(p.Languages))
	for i, l := range p.Languages {
		quoted[i] = fmt.Sprintf("%q", l)
	}
	return fmt.Sprintf("window.__tsPersona = {languages: [%s]};\n", strings.Join(quoted, ","))
}
