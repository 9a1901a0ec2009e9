// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/tourscout/api/schemas"
	"github.com/xkilldash9x/tourscout/internal/browser/locator"
	"github.com/xkilldash9x/tourscout/internal/config"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Database() config.DatabaseConfig {
	args := m.Called()
	return args.Get(0).(config.DatabaseConfig)
}

func (m *MockConfig) Browser() config.BrowserConfig {
	args := m.Called()
	return args.Get(0).(config.BrowserConfig)
}

func (m *MockConfig) Automation() config.AutomationConfig {
	args := m.Called()
	return args.Get(0).(config.AutomationConfig)
}

func (m *MockConfig) Extraction() config.ExtractionConfig {
	args := m.Called()
	return args.Get(0).(config.ExtractionConfig)
}

func (m *MockConfig) Server() config.ServerConfig {
	args := m.Called()
	return args.Get(0).(config.ServerConfig)
}

func (m *MockConfig) Batch() config.BatchConfig {
	args := m.Called()
	return args.Get(0).(config.BatchConfig)
}

func (m *MockConfig) SetBrowserHeadless(b bool)        { m.Called(b) }
func (m *MockConfig) SetServerMock(b bool)             { m.Called(b) }
func (m *MockConfig) SetServerListenAddr(addr string) { m.Called(addr) }

// -- Page Mock --

// MockPage mocks locator.Page for call-level assertions.
type MockPage struct {
	mock.Mock
}

func (m *MockPage) WaitVisible(ctx context.Context, sel locator.Selector) error {
	return m.Called(ctx, sel).Error(0)
}

func (m *MockPage) Click(ctx context.Context, sel locator.Selector) error {
	return m.Called(ctx, sel).Error(0)
}

func (m *MockPage) Fill(ctx context.Context, sel locator.Selector, value string) error {
	return m.Called(ctx, sel, value).Error(0)
}

func (m *MockPage) Select(ctx context.Context, sel locator.Selector, value string) error {
	return m.Called(ctx, sel, value).Error(0)
}

func (m *MockPage) PressKey(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockPage) Evaluate(ctx context.Context, script string, res interface{}) error {
	args := m.Called(ctx, script, res)
	if fn, ok := args.Get(0).(func(interface{})); ok && fn != nil {
		fn(res)
		return args.Error(1)
	}
	return args.Error(1)
}

// -- Page Fake --

// ErrNotVisible is what FakePage reports for selectors it does not render.
var ErrNotVisible = errors.New("selector not visible")

// FakePage is a scripted in-memory page. Selectors listed in Visible resolve
// immediately; everything else fails without waiting. Scripts that read the
// result panel receive Results, other scripts are treated as scripted scans
// and answered by ScanFound.
type FakePage struct {
	mu sync.Mutex

	Visible map[string]bool
	// FailActions makes Click/Fill/Select fail for these selector queries.
	FailActions map[string]bool
	// Stale selector queries pass WaitVisible, but actions on them block
	// until their context ends, like a node re-rendered after lookup.
	Stale map[string]bool
	// StallCollect makes the result panel read block until its context ends.
	StallCollect bool
	ScanFound   func(script string) bool
	Results     interface{}

	NavigateErr error
	// NavigateBlocks makes Navigate wait for its context to end.
	NavigateBlocks bool

	Log        []string
	Navigated  []string
	CloseCalls int
}

// NewFakePage returns a FakePage rendering the given selector queries.
func NewFakePage(visible ...string) *FakePage {
	f := &FakePage{Visible: make(map[string]bool), FailActions: make(map[string]bool), Stale: make(map[string]bool)}
	for _, v := range visible {
		f.Visible[v] = true
	}
	return f
}

func (f *FakePage) record(entry string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Log = append(f.Log, entry)
}

// Entries returns a copy of the interaction log.
func (f *FakePage) Entries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Log...)
}

func (f *FakePage) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	f.Navigated = append(f.Navigated, url)
	f.mu.Unlock()
	if f.NavigateBlocks {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.NavigateErr
}

func (f *FakePage) WaitVisible(ctx context.Context, sel locator.Selector) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	ok := f.Visible[sel.Query]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotVisible, sel)
	}
	return nil
}

func (f *FakePage) act(ctx context.Context, kind string, sel locator.Selector, value string) error {
	f.mu.Lock()
	fail := f.FailActions[sel.Query]
	stale := f.Stale[sel.Query]
	f.mu.Unlock()
	if stale {
		<-ctx.Done()
		return ctx.Err()
	}
	if fail {
		return fmt.Errorf("%s failed on %s", kind, sel)
	}
	f.record(strings.TrimSpace(kind + " " + sel.Query + " " + value))
	return nil
}

func (f *FakePage) Click(ctx context.Context, sel locator.Selector) error {
	return f.act(ctx, "click", sel, "")
}

func (f *FakePage) Fill(ctx context.Context, sel locator.Selector, value string) error {
	return f.act(ctx, "fill", sel, value)
}

func (f *FakePage) Select(ctx context.Context, sel locator.Selector, value string) error {
	return f.act(ctx, "select", sel, value)
}

func (f *FakePage) PressKey(_ context.Context, key string) error {
	f.record("key " + key)
	return nil
}

func (f *FakePage) Evaluate(ctx context.Context, script string, res interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var payload interface{}
	if strings.Contains(script, "TVResultPanel") {
		if f.StallCollect {
			<-ctx.Done()
			return ctx.Err()
		}
		f.record("collect")
		payload = f.Results
		if payload == nil {
			payload = []interface{}{}
		}
	} else {
		found := f.ScanFound != nil && f.ScanFound(script)
		f.record(fmt.Sprintf("scan %t", found))
		payload = found
	}
	if res == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, res)
}

func (f *FakePage) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CloseCalls++
	return nil
}

// Closed reports how many times Close ran.
func (f *FakePage) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.CloseCalls
}

// -- Searcher Mock --

// MockSearcher mocks the search backend used by the service layer.
type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, req schemas.SearchRequest) ([]schemas.TourListing, error) {
	args := m.Called(ctx, req)
	var listings []schemas.TourListing
	if v := args.Get(0); v != nil {
		listings = v.([]schemas.TourListing)
	}
	return listings, args.Error(1)
}
