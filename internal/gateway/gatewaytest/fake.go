// Package gatewaytest provides an in-memory Gateway for tests.
package gatewaytest

import (
	"context"
	"sync"

	"svlink/internal/gateway"
	"svlink/internal/link"
)

// Fake is a scriptable gateway.Gateway. Unset functions return zero
// values. Every call is counted.
type Fake struct {
	ShortenFn func(ctx context.Context, credential string, urls []string) (gateway.Batch, error)
	LookupFn  func(ctx context.Context, credential string, links []string) (gateway.Batch, error)
	ResolveFn func(ctx context.Context, credential string, links []string) ([]gateway.ResolvedLink, error)
	UpdateFn  func(ctx context.Context, credential string, changes []link.Change) (gateway.Batch, error)
	ExportFn  func(ctx context.Context, kind gateway.ExportKind, results []link.BatchResult) (gateway.Artifact, error)
	QRCodesFn func(ctx context.Context, results []link.BatchResult) ([]gateway.QRCode, error)

	mu    sync.Mutex
	calls map[string]int
}

var _ gateway.Gateway = (*Fake)(nil)

func (f *Fake) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
}

// Calls returns how many times op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of calls across all operations.
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *Fake) Shorten(ctx context.Context, credential string, urls []string) (gateway.Batch, error) {
	f.record("shorten")
	if f.ShortenFn == nil {
		return gateway.Batch{}, nil
	}
	return f.ShortenFn(ctx, credential, urls)
}

func (f *Fake) Lookup(ctx context.Context, credential string, links []string) (gateway.Batch, error) {
	f.record("lookup")
	if f.LookupFn == nil {
		return gateway.Batch{}, nil
	}
	return f.LookupFn(ctx, credential, links)
}

func (f *Fake) Resolve(ctx context.Context, credential string, links []string) ([]gateway.ResolvedLink, error) {
	f.record("resolve")
	if f.ResolveFn == nil {
		return nil, nil
	}
	return f.ResolveFn(ctx, credential, links)
}

func (f *Fake) Update(ctx context.Context, credential string, changes []link.Change) (gateway.Batch, error) {
	f.record("update")
	if f.UpdateFn == nil {
		return gateway.Batch{}, nil
	}
	return f.UpdateFn(ctx, credential, changes)
}

func (f *Fake) Export(ctx context.Context, kind gateway.ExportKind, results []link.BatchResult) (gateway.Artifact, error) {
	f.record("export")
	if f.ExportFn == nil {
		return gateway.Artifact{}, nil
	}
	return f.ExportFn(ctx, kind, results)
}

func (f *Fake) QRCodes(ctx context.Context, results []link.BatchResult) ([]gateway.QRCode, error) {
	f.record("qr")
	if f.QRCodesFn == nil {
		return nil, nil
	}
	return f.QRCodesFn(ctx, results)
}

// EchoUpdate answers an update with one success per change.
func EchoUpdate(_ context.Context, _ string, changes []link.Change) (gateway.Batch, error) {
	results := make([]link.BatchResult, len(changes))
	for i, c := range changes {
		results[i] = link.BatchResult{
			Input:       c.Identifier,
			OutputValue: c.NewTarget,
			Success:     true,
			Extra:       map[string]string{gateway.ExtraNewTarget: c.NewTarget},
		}
	}
	return gateway.Batch{Results: results, Summary: link.Summarize(results)}, nil
}
