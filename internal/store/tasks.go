package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"calendo/internal/datekey"

	"github.com/charmbracelet/log"
)

type ChangeKind int

const (
	ChangeNone ChangeKind = iota
	ChangeAdded
	ChangeUpdated
	ChangeRemoved
	ChangeReloaded
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeUpdated:
		return "updated"
	case ChangeRemoved:
		return "removed"
	case ChangeReloaded:
		return "reloaded"
	default:
		return "none"
	}
}

// Change describes one applied mutation. Count is the date's task count afterwards.
type Change struct {
	Kind  ChangeKind
	Key   datekey.Key
	Index int
	Text  string
	Count int
}

// Tasks maps date keys to ordered task texts and mirrors every mutation to a
// Backend. No key ever maps to an empty list.
//
// Tasks is not safe for concurrent use; callers serialize access (one event
// loop, or one CLI command per process).
type Tasks struct {
	backend Backend
	key     string
	logger  *log.Logger

	byDate map[datekey.Key][]string

	subs   map[int]func(Change)
	nextID int

	lastPersist time.Time
}

type Option func(*Tasks)

func WithLogger(l *log.Logger) Option {
	return func(t *Tasks) { t.logger = l }
}

func NewTasks(b Backend, opts ...Option) *Tasks {
	t := &Tasks{
		backend: b,
		key:     TasksKey,
		byDate:  map[datekey.Key][]string{},
		subs:    map[int]func(Change){},
	}
	for _, o := range opts {
		o(t)
	}
	if t.logger == nil {
		t.logger = log.New(io.Discard)
	}
	return t
}

// Load hydrates the store from the backend. A missing blob leaves the store
// empty. A malformed blob also leaves it empty and returns PersistenceFormatError.
func (t *Tasks) Load() error {
	t.byDate = map[datekey.Key][]string{}
	b, ok, err := t.backend.Get(context.Background(), t.key)
	if err != nil {
		return fmt.Errorf("read tasks: %w", err)
	}
	if !ok {
		return nil
	}
	m, err := Decode(b)
	if err != nil {
		return err
	}
	t.byDate = m
	t.logger.Debug("tasks loaded", "dates", len(m))
	return nil
}

// Reload re-reads the backend and notifies subscribers when the content changed.
func (t *Tasks) Reload() (Change, error) {
	before := t.byDate
	if err := t.Load(); err != nil {
		t.byDate = before
		return Change{}, err
	}
	if equalMaps(before, t.byDate) {
		return Change{}, nil
	}
	c := Change{Kind: ChangeReloaded}
	t.notify(c)
	return c, nil
}

// TasksFor returns a copy of the tasks for key; never nil.
func (t *Tasks) TasksFor(key datekey.Key) []string {
	src := t.byDate[key]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

func (t *Tasks) Count(key datekey.Key) int {
	return len(t.byDate[key])
}

// Keys returns every date with at least one task, in chronological order.
func (t *Tasks) Keys() []datekey.Key {
	keys := make([]datekey.Key, 0, len(t.byDate))
	for k := range t.byDate {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Snapshot returns a deep copy of the mapping.
func (t *Tasks) Snapshot() map[datekey.Key][]string {
	return cloneMap(t.byDate)
}

func (t *Tasks) Add(key datekey.Key, text string) (Change, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Change{}, EmptyTaskError{Key: key}
	}
	prev, had := t.byDate[key]
	next := make([]string, len(prev), len(prev)+1)
	copy(next, prev)
	t.byDate[key] = append(next, text)

	if err := t.Persist(); err != nil {
		t.restore(key, prev, had)
		return Change{}, err
	}
	c := Change{Kind: ChangeAdded, Key: key, Index: len(prev), Text: text, Count: len(prev) + 1}
	t.notify(c)
	return c, nil
}

func (t *Tasks) Update(key datekey.Key, index int, text string) (Change, error) {
	prev, had := t.byDate[key]
	if index < 0 || index >= len(prev) {
		return Change{}, IndexOutOfRangeError{Key: key, Index: index, Len: len(prev)}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Change{}, EmptyTaskError{Key: key}
	}
	next := make([]string, len(prev))
	copy(next, prev)
	next[index] = text
	t.byDate[key] = next

	if err := t.Persist(); err != nil {
		t.restore(key, prev, had)
		return Change{}, err
	}
	c := Change{Kind: ChangeUpdated, Key: key, Index: index, Text: text, Count: len(next)}
	t.notify(c)
	return c, nil
}

// RemoveByText removes the first task exactly equal to text. When nothing
// matches it returns a ChangeNone change and does not write.
func (t *Tasks) RemoveByText(key datekey.Key, text string) (Change, error) {
	prev, had := t.byDate[key]
	idx := -1
	for i, s := range prev {
		if s == text {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Change{Kind: ChangeNone, Key: key, Index: -1, Count: len(prev)}, nil
	}

	next := make([]string, 0, len(prev)-1)
	next = append(next, prev[:idx]...)
	next = append(next, prev[idx+1:]...)
	if len(next) == 0 {
		delete(t.byDate, key)
	} else {
		t.byDate[key] = next
	}

	if err := t.Persist(); err != nil {
		t.restore(key, prev, had)
		return Change{}, err
	}
	c := Change{Kind: ChangeRemoved, Key: key, Index: idx, Text: text, Count: len(next)}
	t.notify(c)
	return c, nil
}

// Replace swaps in a whole mapping (import). Empty lists are dropped.
func (t *Tasks) Replace(m map[datekey.Key][]string) error {
	prev := t.byDate
	t.byDate = pruneEmpty(cloneMap(m))
	if err := t.Persist(); err != nil {
		t.byDate = prev
		return err
	}
	t.notify(Change{Kind: ChangeReloaded})
	return nil
}

// Persist writes the full mapping to the backend.
func (t *Tasks) Persist() error {
	b, err := Encode(t.byDate)
	if err != nil {
		return PersistenceWriteError{Err: err}
	}
	if err := t.backend.Put(context.Background(), t.key, b); err != nil {
		t.logger.Error("persist tasks", "err", err)
		return PersistenceWriteError{Err: err}
	}
	t.lastPersist = time.Now()
	return nil
}

// LastPersist is when this process last wrote the backend.
func (t *Tasks) LastPersist() time.Time {
	return t.lastPersist
}

// Subscribe registers fn for every applied Change. The returned func unsubscribes.
func (t *Tasks) Subscribe(fn func(Change)) (cancel func()) {
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	return func() { delete(t.subs, id) }
}

func (t *Tasks) notify(c Change) {
	ids := make([]int, 0, len(t.subs))
	for id := range t.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		t.subs[id](c)
	}
}

func (t *Tasks) restore(key datekey.Key, prev []string, had bool) {
	if had {
		t.byDate[key] = prev
	} else {
		delete(t.byDate, key)
	}
}

// Encode serializes the mapping as {"YYYY-MM-DD": ["task", ...]}.
// Keys come out sorted, so equal mappings encode to equal bytes.
func Encode(m map[datekey.Key][]string) ([]byte, error) {
	raw := make(map[string][]string, len(m))
	for k, v := range m {
		if len(v) == 0 {
			continue
		}
		raw[string(k)] = v
	}
	return json.Marshal(raw)
}

// Decode parses a serialized mapping, validating every key and task. The
// blob must hold exactly one JSON value.
func Decode(b []byte) (map[datekey.Key][]string, error) {
	var raw map[string][]string
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&raw); err != nil {
		return nil, PersistenceFormatError{Err: err}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, PersistenceFormatError{Err: errors.New("trailing data after task mapping")}
	}
	if raw == nil {
		// "null" decodes without error; treat it as an empty store.
		return map[datekey.Key][]string{}, nil
	}
	out := make(map[datekey.Key][]string, len(raw))
	for k, v := range raw {
		key, err := datekey.Parse(k)
		if err != nil || string(key) != k {
			return nil, PersistenceFormatError{Err: fmt.Errorf("bad date key %q", k)}
		}
		if len(v) == 0 {
			continue
		}
		for i, text := range v {
			if strings.TrimSpace(text) == "" {
				return nil, PersistenceFormatError{Err: fmt.Errorf("blank task %d on %s", i, k)}
			}
		}
		out[key] = v
	}
	return out, nil
}

func cloneMap(m map[datekey.Key][]string) map[datekey.Key][]string {
	out := make(map[datekey.Key][]string, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func pruneEmpty(m map[datekey.Key][]string) map[datekey.Key][]string {
	for k, v := range m {
		if len(v) == 0 {
			delete(m, k)
		}
	}
	return m
}

func equalMaps(a, b map[datekey.Key][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
	}
	return true
}
