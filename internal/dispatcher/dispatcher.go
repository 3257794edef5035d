// file: internal/dispatcher/dispatcher.go
// version: 1.1.0
// guid: 7ce23f52-605d-423b-aee8-a066a384748a

// Package dispatcher runs a query against every eligible provider and merges
// their answers into one ordered, de-duplicated list.
package dispatcher

import (
	"cmp"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	ulid "github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/jdfalk/spit/internal/cache"
	"github.com/jdfalk/spit/internal/metrics"
	"github.com/jdfalk/spit/internal/models"
	"github.com/jdfalk/spit/internal/registry"
)

// ErrRetrieval is returned in strict mode when every selected provider failed
// and none was answered from the cache.
var ErrRetrieval = errors.New("retrieval failed")

// Report describes how one provider took part in a retrieval.
type Report struct {
	Provider string
	Items    int
	CacheHit bool
	TimedOut bool
	Err      error
	Duration time.Duration
}

// Failed reports whether the provider contributed nothing because of an error.
func (r Report) Failed() bool { return r.Err != nil || r.TimedOut }

// Options tunes a Dispatcher.
type Options struct {
	// Timeout bounds a retrieval when the caller passes none. Zero waits for
	// every provider.
	Timeout time.Duration
	// Parallel caps how many providers are fetched at once. Zero is unlimited.
	Parallel int
	// Strict turns "every provider failed" into ErrRetrieval instead of an
	// empty list.
	Strict bool
	// MaxPerProvider caps how many items one provider may contribute.
	MaxPerProvider int
	// Blacklist lists payloads that are always dropped.
	Blacklist []string
	Logger    *slog.Logger
	// OnProviderDone is called once per eligible provider, from the
	// goroutine running Retrieve.
	OnProviderDone func(Report)
}

// Dispatcher implements retrieval over a provider registry and a cache.
// It is safe for concurrent use.
type Dispatcher struct {
	reg   *registry.Registry
	store cache.Store

	mu   sync.RWMutex
	opts Options

	gatesMu  sync.Mutex
	gates    map[string]chan struct{}
	limiters map[string]*rate.Limiter
}

// New creates a dispatcher. A nil store disables caching.
func New(reg *registry.Registry, store cache.Store, opts Options) *Dispatcher {
	if store == nil {
		store = cache.NopStore{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Dispatcher{
		reg:      reg,
		store:    store,
		opts:     opts,
		gates:    make(map[string]chan struct{}),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Options returns a copy of the current options.
func (d *Dispatcher) Options() Options {
	d.mu.RLock()
	defer d.mu.RUnlock()
	o := d.opts
	o.Blacklist = slices.Clone(o.Blacklist)
	return o
}

// Reconfigure applies fn to the options. Retrievals already running keep
// the options they started with.
func (d *Dispatcher) Reconfigure(fn func(*Options)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.opts)
	if d.opts.Logger == nil {
		d.opts.Logger = slog.Default()
	}
}

// outcome is what one provider goroutine hands back.
type outcome struct {
	entry  *registry.Entry
	items  []models.RawItem
	report Report
}

// candidate is a normalized record waiting to be ordered.
type candidate struct {
	result models.Result
	key    string
	regIdx int
	seq    int
}

// Retrieve runs q against every eligible provider and returns the merged
// records. A timeout of zero uses Options.Timeout.
//
// Nothing found is an empty, non-nil slice. Errors are returned only for an
// invalid query, or in strict mode when every provider failed.
func (d *Dispatcher) Retrieve(ctx context.Context, q models.Query, timeout time.Duration) ([]models.Result, error) {
	if !q.Valid() {
		return nil, fmt.Errorf("%w: query was not built with BuildQuery", models.ErrInvalidQuery)
	}
	opts := d.Options()
	logger := opts.Logger.With("retrieval", newRetrievalID(), "category", q.Category().String())
	category := q.Category().String()
	start := time.Now()

	metrics.IncRetrieval(category)

	entries, err := d.reg.EligibleProviders(q)
	if errors.Is(err, registry.ErrUnknownSource) {
		logger.Debug("No provider matches source filter", "from", q.SourceFilter())
		metrics.ObserveRetrieval(category, time.Since(start), 0)
		return []models.Result{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		logger.Debug("No eligible providers")
		metrics.ObserveRetrieval(category, time.Since(start), 0)
		return []models.Result{}, nil
	}

	if timeout <= 0 {
		timeout = opts.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger.Debug("Starting retrieval", "query", q.String(), "providers", len(entries), "timeout", timeout)
	outcomes := d.collect(ctx, q, entries, opts, logger)

	failed, errs := 0, make([]error, 0)
	for _, o := range outcomes {
		if o.report.Failed() {
			failed++
			if o.report.Err != nil {
				errs = append(errs, o.report.Err)
			} else {
				errs = append(errs, fmt.Errorf("%s: %w", o.report.Provider, context.DeadlineExceeded))
			}
		}
		if opts.OnProviderDone != nil {
			opts.OnProviderDone(o.report)
		}
		if fn := reporterFrom(ctx); fn != nil {
			fn(o.report)
		}
	}

	if opts.Strict && failed == len(outcomes) {
		metrics.IncRetrievalFailed(category)
		metrics.ObserveRetrieval(category, time.Since(start), 0)
		logger.Warn("All providers failed", "providers", len(outcomes))
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, errors.Join(errs...))
	}

	results := merge(q, outcomes, opts)
	metrics.ObserveRetrieval(category, time.Since(start), len(results))
	logger.Debug("Retrieval finished", "results", len(results), "failed", failed, "elapsed", time.Since(start))
	return results, nil
}

// collect fetches from every entry and returns one outcome per entry in
// registration order. Entries still running when ctx ends are reported as
// timed out.
func (d *Dispatcher) collect(ctx context.Context, q models.Query, entries []*registry.Entry, opts Options, logger *slog.Logger) []outcome {
	var sem chan struct{}
	if opts.Parallel > 0 {
		sem = make(chan struct{}, opts.Parallel)
	}

	type indexed struct {
		idx int
		out outcome
	}
	done := make(chan indexed, len(entries))
	for i, e := range entries {
		go func() {
			done <- indexed{idx: i, out: d.fetchOne(ctx, q, e, sem, logger)}
		}()
	}

	outcomes := make([]outcome, len(entries))
	received := make([]bool, len(entries))
wait:
	for remaining := len(entries); remaining > 0; remaining-- {
		select {
		case r := <-done:
			outcomes[r.idx] = r.out
			received[r.idx] = true
		case <-ctx.Done():
			break wait
		}
	}

	// Keep anything that landed while ctx was being observed.
drain:
	for {
		select {
		case r := <-done:
			outcomes[r.idx] = r.out
			received[r.idx] = true
		default:
			break drain
		}
	}

	for i, e := range entries {
		if received[i] {
			continue
		}
		logger.Warn("Provider timed out", "provider", e.Descriptor.Name)
		metrics.ObserveProviderFetch(e.Descriptor.Name, metrics.OutcomeTimeout, 0)
		outcomes[i] = outcome{entry: e, report: Report{Provider: e.Descriptor.Name, TimedOut: true}}
	}
	return outcomes
}

// fetchOne answers q for one provider from the cache or the provider itself.
func (d *Dispatcher) fetchOne(ctx context.Context, q models.Query, e *registry.Entry, sem chan struct{}, logger *slog.Logger) outcome {
	name := e.Descriptor.Name
	start := time.Now()
	out := outcome{entry: e, report: Report{Provider: name}}
	finish := func(items []models.RawItem, err error) outcome {
		out.items = items
		out.report.Items = len(items)
		out.report.Err = err
		out.report.Duration = time.Since(start)
		if err != nil && ctx.Err() != nil {
			out.report.TimedOut = true
		}
		return out
	}

	key := cache.Key(name, q)
	if items, hit, err := d.store.Get(key); err != nil {
		metrics.IncCacheError()
		logger.Warn("Cache read failed", "provider", name, "error", err)
	} else if hit {
		metrics.IncCacheHit()
		out.report.CacheHit = true
		return finish(items, nil)
	} else {
		metrics.IncCacheMiss()
	}

	if sem != nil {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		case <-ctx.Done():
			return finish(nil, ctx.Err())
		}
	}

	release, err := d.acquire(ctx, e)
	if err != nil {
		return finish(nil, err)
	}
	defer release()

	items, err := e.Provider.Fetch(ctx, q)
	outcomeLabel := metrics.OutcomeOK
	if err != nil {
		outcomeLabel = metrics.OutcomeFailed
		if ctx.Err() != nil {
			outcomeLabel = metrics.OutcomeTimeout
		}
	}
	metrics.ObserveProviderFetch(name, outcomeLabel, time.Since(start))
	if err != nil {
		logger.Warn("Provider fetch failed", "provider", name, "error", err)
		return finish(nil, err)
	}

	if err := d.store.Put(key, items); err != nil {
		logger.Warn("Cache write failed", "provider", name, "error", err)
	}
	logger.Debug("Provider answered", "provider", name, "items", len(items), "elapsed", time.Since(start))
	return finish(items, nil)
}

// acquire serializes calls to one provider and applies its rate limit.
func (d *Dispatcher) acquire(ctx context.Context, e *registry.Entry) (func(), error) {
	gate, limiter := d.providerControls(e)

	select {
	case gate <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	release := func() { <-gate }

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			release()
			return nil, err
		}
	}
	return release, nil
}

func (d *Dispatcher) providerControls(e *registry.Entry) (chan struct{}, *rate.Limiter) {
	d.gatesMu.Lock()
	defer d.gatesMu.Unlock()

	name := e.Descriptor.Name
	gate, ok := d.gates[name]
	if !ok {
		gate = make(chan struct{}, 1)
		d.gates[name] = gate
		if rps := e.Descriptor.RateLimit; rps > 0 {
			d.limiters[name] = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
	return gate, d.limiters[name]
}

// merge normalizes, orders, de-duplicates and truncates provider output.
func merge(q models.Query, outcomes []outcome, opts Options) []models.Result {
	kind := q.Category().Kind()
	bl := newBlacklist(kind, opts.Blacklist)

	var cands []candidate
	for _, o := range outcomes {
		kept := 0
		for seq, item := range o.items {
			if isBlank(item.Data) {
				continue
			}
			key := dedupKey(kind, item.Data)
			if bl.contains(key) {
				continue
			}
			if opts.MaxPerProvider > 0 && kept >= opts.MaxPerProvider {
				break
			}
			kept++
			cands = append(cands, candidate{
				result: models.Result{
					Provider: o.entry.Descriptor.Name,
					Kind:     q.Category(),
					Label:    item.Label,
					Data:     slices.Clone(item.Data),
					Source:   item.Source,
					Rank:     item.Rank,
				},
				key:    key,
				regIdx: o.entry.Index,
				seq:    seq,
			})
		}
	}

	slices.SortStableFunc(cands, func(a, b candidate) int {
		if c := cmp.Compare(b.result.Rank, a.result.Rank); c != 0 {
			return c
		}
		if c := cmp.Compare(a.regIdx, b.regIdx); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})

	// After sorting, the first record seen for a key is the one to keep.
	seen := make(map[string]struct{}, len(cands))
	results := make([]models.Result, 0, len(cands))
	for _, c := range cands {
		if _, dup := seen[c.key]; dup {
			continue
		}
		seen[c.key] = struct{}{}
		results = append(results, c.result)
		if n := q.MaxResults(); n > 0 && len(results) == n {
			break
		}
	}
	return results
}

func newRetrievalID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return ""
	}
	return id.String()
}
