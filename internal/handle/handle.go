// Package handle implements generation-checked slot tables. Every object the
// runtime hands out to clients is referenced by a 32-bit ID drawn from one of
// these tables:
//
//	 31     28 27                16 15                      0
//	+---------+--------------------+-------------------------+
//	|  kind   |     generation     |       slot index        |
//	+---------+--------------------+-------------------------+
//
// The generation is bumped every time a slot is released, so an ID that
// outlives its object is rejected instead of silently resolving to whatever
// object reuses the slot. Kind 0xf is never assigned, which keeps the shared
// invalid ID (0xffffffff) out of every namespace.
package handle

// Invalid is the ID that never refers to a live object.
const Invalid uint32 = 0xffffffff

// MaxSlots is the capacity of a single table.
const MaxSlots = 1 << 16

const (
	kindShift = 28
	genShift  = 16
	genMask   = 0xfff
	indexMask = 0xffff
)

// minFree is how many released slots must queue up before one is reused.
// A slot's generation then advances at most once per minFree releases, so a
// stale ID needs minFree<<12 churn cycles before it can alias a live object.
const minFree = 1024

// Kind tags an ID with the table it belongs to. Valid kinds are 1 through 14.
type Kind uint8

// KindOf returns the namespace tag encoded in id.
func KindOf(id uint32) Kind {
	return Kind(id >> kindShift)
}

type slot[T any] struct {
	gen   uint16
	used  bool
	value T
}

// Table maps IDs of a single kind to values. Table is not safe for concurrent
// use; callers serialize access.
type Table[T any] struct {
	kind  Kind
	limit int
	slots []slot[T]

	// Released slots, reused oldest first and only once minFree of them are
	// queued, so that a given slot's generation advances as slowly as
	// possible.
	free []uint16

	live int
}

// NewTable creates a table for IDs of the given kind holding at most limit
// live entries. A limit of zero or above MaxSlots means MaxSlots.
func NewTable[T any](kind Kind, limit int) *Table[T] {
	if kind == 0 || kind >= 0xf {
		panic("handle: invalid kind")
	}
	if limit <= 0 || limit > MaxSlots {
		limit = MaxSlots
	}
	return &Table[T]{kind: kind, limit: limit}
}

func (t *Table[T]) makeID(index uint16) uint32 {
	gen := uint32(t.slots[index].gen) & genMask
	return uint32(t.kind)<<kindShift | gen<<genShift | uint32(index)
}

// Insert stores v and returns its new ID. It reports false when the table is
// full.
func (t *Table[T]) Insert(v T) (uint32, bool) {
	if t.live >= t.limit {
		return Invalid, false
	}

	var index uint16
	switch {
	case len(t.free) >= minFree || (len(t.free) > 0 && len(t.slots) >= MaxSlots):
		index = t.free[0]
		t.free = t.free[1:]
	case len(t.slots) < MaxSlots:
		index = uint16(len(t.slots))
		t.slots = append(t.slots, slot[T]{})
	default:
		return Invalid, false
	}

	s := &t.slots[index]
	s.used = true
	s.value = v
	t.live++
	return t.makeID(index), true
}

// lookup resolves id to its slot, checking kind, bounds and generation.
func (t *Table[T]) lookup(id uint32) *slot[T] {
	if id == Invalid || KindOf(id) != t.kind {
		return nil
	}
	index := id & indexMask
	if int(index) >= len(t.slots) {
		return nil
	}
	s := &t.slots[index]
	if !s.used || uint32(s.gen)&genMask != (id>>genShift)&genMask {
		return nil
	}
	return s
}

// Get returns the value stored under id.
func (t *Table[T]) Get(id uint32) (v T, ok bool) {
	if s := t.lookup(id); s != nil {
		return s.value, true
	}
	return v, false
}

// Contains reports whether id refers to a live entry.
func (t *Table[T]) Contains(id uint32) bool {
	return t.lookup(id) != nil
}

// Remove deletes the entry under id and returns its value. The ID, and every
// copy of it, is invalid afterwards.
func (t *Table[T]) Remove(id uint32) (v T, ok bool) {
	s := t.lookup(id)
	if s == nil {
		return v, false
	}
	v = s.value

	var zero T
	s.value = zero
	s.used = false
	s.gen = (s.gen + 1) & genMask
	t.free = append(t.free, uint16(id&indexMask))
	t.live--
	return v, true
}

// Len returns the number of live entries.
func (t *Table[T]) Len() int {
	return t.live
}

// Available returns how many more entries can be inserted.
func (t *Table[T]) Available() int {
	return t.limit - t.live
}

// Each calls fn for every live entry in slot order until fn returns false.
// fn must not insert into or remove from the table.
func (t *Table[T]) Each(fn func(id uint32, v T) bool) {
	for i := range t.slots {
		if !t.slots[i].used {
			continue
		}
		if !fn(t.makeID(uint16(i)), t.slots[i].value) {
			return
		}
	}
}

// Clear removes every entry, invalidating all outstanding IDs.
func (t *Table[T]) Clear() {
	var zero T
	for i := range t.slots {
		s := &t.slots[i]
		if s.used {
			s.used = false
			s.value = zero
			s.gen = (s.gen + 1) & genMask
			t.free = append(t.free, uint16(i))
		}
	}
	t.live = 0
}
