package browser

import (
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/tourscout/internal/config"
)

// baseFlags keep headless Chrome stable in containers and hide the
// automation banner from page scripts.
var baseFlags = map[string]interface{}{
	"no-sandbox":             true,
	"disable-gpu":            true,
	"disable-dev-shm-usage":  true,
	"disable-blink-features": "AutomationControlled",
	"lang":                   "ru-RU",
}

// allocatorFlags lists the command-line switches derived from cfg. Extra args
// of the form --name or --name=value are merged in last and win.
func allocatorFlags(cfg config.BrowserConfig) map[string]interface{} {
	flags := make(map[string]interface{}, len(baseFlags)+len(cfg.Args)+1)
	for k, v := range baseFlags {
		flags[k] = v
	}
	flags["headless"] = cfg.Headless
	if cfg.Locale != "" {
		flags["lang"] = cfg.Locale
	}
	for _, arg := range cfg.Args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name == "" {
			continue
		}
		if hasValue {
			flags[name] = value
		} else {
			flags[name] = true
		}
	}
	return flags
}

// DefaultAllocatorOptions returns the exec allocator options for cfg.
func DefaultAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range allocatorFlags(cfg) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.Width, cfg.Height))
	}
	return opts
}
