package draft

import (
	"errors"
	"testing"
)

// fakeStore 记录每次写入，便于断言 flush 行为
type fakeStore struct {
	writes []map[string]any
	ids    []string
	fail   map[string]error
}

func (f *fakeStore) UpdateFields(id string, fields map[string]any) error {
	if err, ok := f.fail[id]; ok {
		return err
	}
	f.ids = append(f.ids, id)
	f.writes = append(f.writes, fields)
	return nil
}

func TestSetFieldMergesPerSection(t *testing.T) {
	buf := NewBuffer()
	buf.SetField("s1", "title", "first")
	buf.SetField("s1", "description", "desc")
	buf.SetField("s1", "title", "second")

	entries := buf.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected one pending section, got %d", len(entries))
	}
	if entries["s1"]["title"] != "second" {
		t.Fatalf("expected last write to win, got %v", entries["s1"]["title"])
	}
	if entries["s1"]["description"] != "desc" {
		t.Fatal("expected independent fields to coexist")
	}
}

func TestFlushWithNoPendingEditsIssuesZeroWrites(t *testing.T) {
	buf := NewBuffer()
	store := &fakeStore{}

	result := buf.Flush(store)
	if len(store.writes) != 0 {
		t.Fatalf("expected zero writes, got %d", len(store.writes))
	}
	if !result.Ok() {
		t.Fatal("expected empty flush to be ok")
	}
}

func TestFlushPersistsAndClearsEntries(t *testing.T) {
	buf := NewBuffer()
	store := &fakeStore{}
	buf.SetField("s1", "title", "a")
	buf.SetField("s2", "visible", false)

	result := buf.Flush(store)
	if len(result.Applied) != 2 {
		t.Fatalf("expected 2 applied, got %d", len(result.Applied))
	}
	if buf.Pending() != 0 {
		t.Fatalf("expected buffer to drain, still %d pending", buf.Pending())
	}
	if len(store.writes) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(store.writes))
	}
}

func TestFlushSurfacesPerSectionFailures(t *testing.T) {
	buf := NewBuffer()
	boom := errors.New("boom")
	store := &fakeStore{fail: map[string]error{"s2": boom}}
	buf.SetField("s1", "title", "a")
	buf.SetField("s2", "title", "b")
	buf.SetField("s3", "title", "c")

	result := buf.Flush(store)
	if len(result.Applied) != 2 {
		t.Fatalf("expected 2 applied, got %d", len(result.Applied))
	}
	if !errors.Is(result.Failed["s2"], boom) {
		t.Fatalf("expected failure for s2, got %v", result.Failed)
	}
	// 失败的条目留在缓冲里等待重试或取消
	if buf.Pending() != 1 {
		t.Fatalf("expected failed entry to stay pending, got %d", buf.Pending())
	}
}

func TestBufferIsolatesEditsUntilFlush(t *testing.T) {
	buf := NewBuffer()
	store := &fakeStore{}

	buf.SetField("s1", "title", "edited")
	if len(store.writes) != 0 {
		t.Fatal("expected no writes before flush")
	}

	buf.Flush(store)
	if len(store.writes) != 1 {
		t.Fatalf("expected one write after flush, got %d", len(store.writes))
	}
}

func TestClearDiscardsWithoutPersisting(t *testing.T) {
	buf := NewBuffer()
	store := &fakeStore{}
	buf.SetField("s1", "title", "a")

	buf.Clear()
	buf.Flush(store)
	if len(store.writes) != 0 {
		t.Fatalf("expected zero writes after clear, got %d", len(store.writes))
	}
}

func TestDropRemovesDeletedSectionEntry(t *testing.T) {
	buf := NewBuffer()
	store := &fakeStore{}
	buf.SetField("s1", "title", "a")
	buf.SetField("s2", "title", "b")

	buf.Drop("s1")

	result := buf.Flush(store)
	if len(result.Applied) != 1 || result.Applied[0] != "s2" {
		t.Fatalf("expected only s2 to flush, got %v", result.Applied)
	}
	for _, id := range store.ids {
		if id == "s1" {
			t.Fatal("flush must not touch a dropped id")
		}
	}
}

func TestRegistryScopesBuffersBySession(t *testing.T) {
	reg := NewRegistry()
	a := reg.Buffer("session-a")
	b := reg.Buffer("session-b")

	a.SetField("s1", "title", "from-a")
	if b.Pending() != 0 {
		t.Fatal("expected sessions to be isolated")
	}
	if reg.Buffer("session-a") != a {
		t.Fatal("expected stable buffer per session")
	}
}

func TestRegistryDropSectionSpansSessions(t *testing.T) {
	reg := NewRegistry()
	reg.Buffer("a").SetField("s1", "title", "x")
	reg.Buffer("b").SetField("s1", "title", "y")
	reg.Buffer("b").SetField("s2", "title", "z")

	reg.DropSection("s1")

	if reg.Buffer("a").Pending() != 0 {
		t.Fatal("expected s1 dropped from session a")
	}
	if reg.Buffer("b").Pending() != 1 {
		t.Fatal("expected only s2 left in session b")
	}
}
