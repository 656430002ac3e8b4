package draft

import (
	"sort"
	"sync"
)

// Store is the narrow slice of the content store the buffer needs to
// flush itself.
type Store interface {
	UpdateFields(id string, fields map[string]any) error
}

// FlushResult reports per-section outcomes of a flush. A flush is not
// atomic across sections: some ids may be persisted while others fail,
// and the caller surfaces the failures individually.
type FlushResult struct {
	Applied []string
	Failed  map[string]error
}

// Ok reports whether every pending edit was persisted.
func (r FlushResult) Ok() bool {
	return len(r.Failed) == 0
}

// Buffer accumulates uncommitted field edits keyed by section id. It
// shadows, but never mutates, the authoritative records until flushed.
type Buffer struct {
	edits map[string]map[string]any
}

// NewBuffer returns an empty draft buffer.
func NewBuffer() *Buffer {
	return &Buffer{edits: make(map[string]map[string]any)}
}

// SetField records an edit for one field of one section. Later writes
// to the same field win; edits to distinct fields of the same section
// coexist.
func (b *Buffer) SetField(sectionID, field string, value any) {
	entry, ok := b.edits[sectionID]
	if !ok {
		entry = make(map[string]any)
		b.edits[sectionID] = entry
	}
	entry[field] = value
}

// Pending returns the number of sections with uncommitted edits.
func (b *Buffer) Pending() int {
	return len(b.edits)
}

// Entries returns a copy of the pending edits keyed by section id.
func (b *Buffer) Entries() map[string]map[string]any {
	out := make(map[string]map[string]any, len(b.edits))
	for id, fields := range b.edits {
		entry := make(map[string]any, len(fields))
		for k, v := range fields {
			entry[k] = v
		}
		out[id] = entry
	}
	return out
}

// Drop discards the pending entry for one section. Called from the
// section delete path so the buffer never holds an id that no longer
// exists.
func (b *Buffer) Drop(sectionID string) {
	delete(b.edits, sectionID)
}

// Clear discards every pending edit without persisting.
func (b *Buffer) Clear() {
	b.edits = make(map[string]map[string]any)
}

// Flush persists every pending entry through the store, one update per
// section id, in stable id order. Entries that persist are removed
// from the buffer; failed entries stay pending so the caller can retry
// or cancel after surfacing them. With nothing pending no writes are
// issued.
func (b *Buffer) Flush(store Store) FlushResult {
	result := FlushResult{Failed: make(map[string]error)}
	if len(b.edits) == 0 {
		return result
	}

	ids := make([]string, 0, len(b.edits))
	for id := range b.edits {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := store.UpdateFields(id, b.edits[id]); err != nil {
			result.Failed[id] = err
			continue
		}
		result.Applied = append(result.Applied, id)
		delete(b.edits, id)
	}
	return result
}

// Registry hands out one draft buffer per editor session. Buffers are
// created on first edit and live until flushed or cleared; the single
// mutex is plenty under the one-editor-at-a-time assumption.
type Registry struct {
	mu      sync.Mutex
	buffers map[string]*Buffer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{buffers: make(map[string]*Buffer)}
}

// Buffer returns the buffer owned by the given session, creating it on
// first use.
func (r *Registry) Buffer(sessionID string) *Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf, ok := r.buffers[sessionID]
	if !ok {
		buf = NewBuffer()
		r.buffers[sessionID] = buf
	}
	return buf
}

// DropSection removes pending edits for a deleted section from every
// session's buffer.
func (r *Registry) DropSection(sectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, buf := range r.buffers {
		buf.Drop(sectionID)
	}
}

// Release discards a session's buffer entirely, used when the editor
// view is closed.
func (r *Registry) Release(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buffers, sessionID)
}
