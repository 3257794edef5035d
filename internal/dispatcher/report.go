// file: internal/dispatcher/report.go
// version: 1.0.0
// guid: 16c0e5ff-9adf-4351-9a1b-78779f6592d6

package dispatcher

import "context"

type reporterKey struct{}

// WithReporter returns a context whose retrievals also call fn once per
// eligible provider. It complements Options.OnProviderDone for callers that
// need the reports of a single retrieval.
func WithReporter(ctx context.Context, fn func(Report)) context.Context {
	return context.WithValue(ctx, reporterKey{}, fn)
}

func reporterFrom(ctx context.Context) func(Report) {
	fn, _ := ctx.Value(reporterKey{}).(func(Report))
	return fn
}
