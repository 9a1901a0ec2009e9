package browser

import "context"

// combineContext derives from base (which carries the chromedp target) and
// also ends when ctx ends or reaches its deadline. Cancelling the result
// never closes the tab.
func combineContext(base, ctx context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(base)
	if d, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		combined, cancelDeadline = context.WithDeadline(combined, d)
		prev := cancel
		cancel = func() {
			cancelDeadline()
			prev()
		}
	}
	stop := context.AfterFunc(ctx, cancel)
	return combined, func() {
		stop()
		cancel()
	}
}
