package search

import (
	"context"

	"github.com/xkilldash9x/tourscout/internal/browser"
	"github.com/xkilldash9x/tourscout/internal/browser/locator"
)

// Page is what the driver needs from a browser tab.
type Page interface {
	locator.Page
	Navigate(ctx context.Context, url string) error
}

// Session is a page the driver owns and must release.
type Session interface {
	Page
	Close() error
}

// Opener starts isolated sessions.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context) (Session, error)

func (f OpenerFunc) Open(ctx context.Context) (Session, error) { return f(ctx) }

// BrowserOpener opens sessions on a browser manager.
func BrowserOpener(m *browser.Manager) Opener {
	return OpenerFunc(func(ctx context.Context) (Session, error) {
		s, err := m.NewSession(ctx)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
