package link

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"blank lines dropped", "a\n\n  \nb\n", []string{"a", "b"}},
		{"trimmed", "  a.sv/x1 \r\n\tb ", []string{"a.sv/x1", "b"}},
		{"keeps duplicates", "x\nx", []string{"x", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLines(tt.in))
		})
	}
}

func TestFindDuplicates(t *testing.T) {
	t.Run("case insensitive reported once", func(t *testing.T) {
		got := FindDuplicates([]string{"http://x", "http://X", "http://y"})
		assert.Equal(t, []string{"http://x"}, got)
	})

	t.Run("triple occurrence still once", func(t *testing.T) {
		got := FindDuplicates([]string{" a ", "A", "a", "b", "B"})
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("no duplicates", func(t *testing.T) {
		assert.Empty(t, FindDuplicates([]string{"a", "b"}))
	})
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", ShortID("https://sv.link/abc"))
	assert.Equal(t, "abc", ShortID("sv.link/abc/"))
	assert.Equal(t, "abc", ShortID(" abc "))
}

func TestSummarize(t *testing.T) {
	results := []BatchResult{
		{Input: "a", OutputValue: "x", Success: true},
		{Input: "b", Success: false},
		{Input: "c", OutputValue: "y", Success: true},
	}
	s := Summarize(results)
	assert.Equal(t, Summary{Total: 3, Success: 2, Failed: 1}, s)
	assert.True(t, s.Valid())
	assert.True(t, Summarize(nil).Valid())
	assert.False(t, Summary{Total: 2, Success: 2, Failed: 1}.Valid())
}

func TestStore_ReplaceAllCopies(t *testing.T) {
	recs := []LinkRecord{
		{Index: 0, Identifier: "a", CurrentTarget: strPtr("t1"), Resolved: true},
		{Index: 1, Identifier: "b"},
	}
	s := NewStore(recs)
	*recs[0].CurrentTarget = "mutated"
	recs[1].Identifier = "mutated"

	got, ok := s.Get(0)
	require.True(t, ok)
	assert.Equal(t, "t1", got.Target())

	*got.CurrentTarget = "again"
	again, _ := s.Get(0)
	assert.Equal(t, "t1", again.Target())

	all := s.All()
	assert.Equal(t, "b", all[1].Identifier)
	assert.Len(t, s.Editable(), 1)

	s.ReplaceAll(nil)
	assert.Equal(t, 0, s.Len())
	_, ok = s.Get(0)
	assert.False(t, ok)
}

func TestStore_GetByExplicitIndex(t *testing.T) {
	s := NewStore([]LinkRecord{{Index: 5, Identifier: "five"}})
	got, ok := s.Get(5)
	require.True(t, ok)
	assert.Equal(t, "five", got.Identifier)
	_, ok = s.Get(0)
	assert.False(t, ok)
}

func TestBuildChanges(t *testing.T) {
	store := NewStore([]LinkRecord{
		{Index: 0, Identifier: "a.sv/x1", LinkID: "id1", CurrentTarget: strPtr("t1"), Resolved: true},
		{Index: 1, Identifier: "a.sv/x2", Resolved: false},
	})

	t.Run("unresolved rows never produce a change", func(t *testing.T) {
		got := BuildChanges(store, map[int]string{0: "t2", 1: "sneaky"})
		want := []Change{{Index: 0, Identifier: "a.sv/x1", LinkID: "id1", PreviousTarget: "t1", NewTarget: "t2"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("BuildChanges mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("blank and unknown edits ignored", func(t *testing.T) {
		assert.Empty(t, BuildChanges(store, map[int]string{0: "   ", 7: "x", -1: "y"}))
	})

	t.Run("identical target still a change", func(t *testing.T) {
		got := BuildChanges(store, map[int]string{0: " t1 "})
		require.Len(t, got, 1)
		assert.Equal(t, "t1", got[0].NewTarget)
		assert.Equal(t, "t1", got[0].PreviousTarget)
	})
}

func TestBuildChanges_AscendingIndex(t *testing.T) {
	var recs []LinkRecord
	edits := map[int]string{}
	for i := 0; i < 20; i++ {
		recs = append(recs, LinkRecord{Index: i, Identifier: fmt.Sprintf("l%d", i), CurrentTarget: strPtr("t"), Resolved: i%3 != 0})
		edits[i] = fmt.Sprintf("n%d", i)
	}
	got := BuildChanges(NewStore(recs), edits)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].Index, got[i].Index)
	}
	for _, c := range got {
		assert.NotZero(t, c.Index%3, "unresolved index %d produced a change", c.Index)
	}
}

func TestErrors(t *testing.T) {
	v := &ValidationError{Field: "api key", Message: "required"}
	assert.Equal(t, "api key: required", v.Error())
	assert.True(t, IsValidation(fmt.Errorf("wrap: %w", v)))
	assert.False(t, IsRemote(v))

	inner := errors.New("connection refused")
	tr := &TransportError{Op: "lookup", Err: inner}
	assert.ErrorIs(t, tr, inner)
	assert.True(t, IsRemote(tr))
	assert.Contains(t, (&TransportError{Op: "lookup", Status: 502, Err: inner}).Error(), "HTTP 502")

	app := &ApplicationError{Op: "shorten", Status: 400, Message: "缺少 API Key"}
	assert.True(t, IsRemote(app))
	assert.Contains(t, app.Error(), "缺少 API Key")
}
