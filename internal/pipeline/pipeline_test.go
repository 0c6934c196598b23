package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"svlink/internal/gateway"
	"svlink/internal/gateway/gatewaytest"
	"svlink/internal/link"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func shortenAll(_ context.Context, _ string, urls []string) (gateway.Batch, error) {
	results := make([]link.BatchResult, len(urls))
	for i, u := range urls {
		results[i] = link.BatchResult{Input: u, OutputValue: "https://sv.link/" + u, Success: true}
	}
	return gateway.Batch{Results: results, Summary: link.Summarize(results)}, nil
}

func TestBegin_Validation(t *testing.T) {
	p := New(link.KindGenerate)

	_, err := p.Begin("", "http://a")
	assert.True(t, link.IsValidation(err))
	_, err = p.Begin("k", "\n  \n")
	assert.True(t, link.IsValidation(err))
	assert.False(t, p.Busy())
}

func TestBegin_DuplicatesWarnedButKept(t *testing.T) {
	p := New(link.KindGenerate)
	req, err := p.Begin("k", "http://x\nhttp://X\nhttp://y")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x"}, req.Duplicates)
	assert.Len(t, req.Lines, 3)
}

func TestBegin_LookupSkipsDuplicateCheck(t *testing.T) {
	p := New(link.KindLookup)
	req, err := p.Begin("k", "a\na")
	require.NoError(t, err)
	assert.Empty(t, req.Duplicates)
}

func TestBegin_BusyWhileInFlight(t *testing.T) {
	p := New(link.KindLookup)
	_, err := p.Begin("k", "a")
	require.NoError(t, err)
	assert.True(t, p.Busy())

	_, err = p.Begin("k", "b")
	assert.ErrorIs(t, err, link.ErrBusy)
}

func TestBegin_UnsupportedKind(t *testing.T) {
	_, err := New(link.KindUpdate).Begin("k", "a")
	assert.Error(t, err)
}

func TestRun_StoresResults(t *testing.T) {
	fake := &gatewaytest.Fake{ShortenFn: shortenAll}
	p := New(link.KindGenerate)

	_, err := p.Run(context.Background(), fake, "k", "a\nb")
	require.NoError(t, err)
	assert.Len(t, p.Results(), 2)
	assert.Equal(t, link.Summary{Total: 2, Success: 2}, p.Summary())
	assert.False(t, p.Busy())
}

func TestRun_LookupUsesLookupEndpoint(t *testing.T) {
	fake := &gatewaytest.Fake{}
	_, err := New(link.KindLookup).Run(context.Background(), fake, "k", "a")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Calls("lookup"))
	assert.Zero(t, fake.Calls("shorten"))
}

func TestComplete_FailureKeepsPreviousResults(t *testing.T) {
	p := New(link.KindGenerate)
	fake := &gatewaytest.Fake{ShortenFn: shortenAll}
	_, err := p.Run(context.Background(), fake, "k", "a")
	require.NoError(t, err)

	boom := &link.TransportError{Op: "shorten", Err: errors.New("refused")}
	fake.ShortenFn = func(context.Context, string, []string) (gateway.Batch, error) { return gateway.Batch{}, boom }
	_, err = p.Run(context.Background(), fake, "k", "b")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, p.Err(), boom)
	require.Len(t, p.Results(), 1)
	assert.Equal(t, "a", p.Results()[0].Input)
}

func TestComplete_SummaryRecomputed(t *testing.T) {
	p := New(link.KindGenerate)
	req, err := p.Begin("k", "a\nb")
	require.NoError(t, err)

	err = p.Complete(req.Ticket, gateway.Batch{
		Results: []link.BatchResult{{Input: "a", OutputValue: "s", Success: true}, {Input: "b"}},
		Summary: link.Summary{Total: 2, Success: 2},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, link.Summary{Total: 2, Success: 1, Failed: 1}, p.Summary())
}

func TestComplete_StaleAfterReset(t *testing.T) {
	p := New(link.KindLookup)
	req, err := p.Begin("k", "a")
	require.NoError(t, err)

	p.Reset()
	err = p.Complete(req.Ticket, gateway.Batch{Results: []link.BatchResult{{Input: "a", Success: true, OutputValue: "1"}}}, nil)
	assert.ErrorIs(t, err, link.ErrStaleResponse)
	assert.Empty(t, p.Results())
	assert.False(t, p.Busy())

	// Sequence numbers restart after reset; the old session still never matches.
	next, err := p.Begin("k", "b")
	require.NoError(t, err)
	assert.Equal(t, req.Ticket.Seq, next.Ticket.Seq)
	assert.ErrorIs(t, p.Complete(req.Ticket, gateway.Batch{}, nil), link.ErrStaleResponse)
	assert.NoError(t, p.Complete(next.Ticket, gateway.Batch{}, nil))
}

func TestResults_ReturnsCopy(t *testing.T) {
	p := New(link.KindGenerate)
	_, err := p.Run(context.Background(), &gatewaytest.Fake{ShortenFn: shortenAll}, "k", "a")
	require.NoError(t, err)

	got := p.Results()
	got[0].OutputValue = "mutated"
	assert.Equal(t, "https://sv.link/a", p.Results()[0].OutputValue)
}
