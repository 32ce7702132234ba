package diag

import (
	"cmp"
	"slices"

	"quill/internal/source"
)

// Bag collects the diagnostics of one compile or one session fragment.
type Bag struct {
	items   []Diagnostic
	max     int
	dropped int
	errors  int // counted before the limit applies
}

// NewBag creates a bag holding at most limit diagnostics; limit <= 0 means unbounded.
func NewBag(limit int) *Bag {
	return &Bag{items: make([]Diagnostic, 0, min(max(limit, 8), 64)), max: limit}
}

// Add appends d unless the bag is full. Dropped diagnostics are counted.
func (b *Bag) Add(d Diagnostic) bool {
	if d.Severity >= SevError {
		b.errors++
	}
	if b.max > 0 && len(b.items) >= b.max {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

// Force appends d even when the bag is full.
func (b *Bag) Force(d Diagnostic) {
	if d.Severity >= SevError {
		b.errors++
	}
	b.items = append(b.items, d)
}

// HasErrors reports whether an error was added, kept or dropped.
func (b *Bag) HasErrors() bool {
	return b != nil && b.errors > 0
}

func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.items)
}

// Dropped reports how many diagnostics the limit discarded.
func (b *Bag) Dropped() int {
	if b == nil {
		return 0
	}
	return b.dropped
}

// Items returns the backing slice. Do not modify it.
func (b *Bag) Items() []Diagnostic {
	if b == nil {
		return nil
	}
	return b.items
}

// Sort orders diagnostics by file and position, errors before warnings at
// the same span, then by code.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Primary.File, y.Primary.File),
			cmp.Compare(x.Primary.Start, y.Primary.Start),
			cmp.Compare(x.Primary.End, y.Primary.End),
			cmp.Compare(y.Severity, x.Severity),
			cmp.Compare(x.Code, y.Code),
		)
	})
}

// Dedup keeps the first diagnostic of every code and primary span.
func (b *Bag) Dedup() {
	type key struct {
		code Code
		span source.Span
	}
	seen := make(map[key]bool, len(b.items))
	b.items = slices.DeleteFunc(b.items, func(d Diagnostic) bool {
		k := key{d.Code, d.Primary}
		if seen[k] {
			return true
		}
		seen[k] = true
		return false
	})
}

// Codes lists the codes in bag order.
func (b *Bag) Codes() []Code {
	out := make([]Code, 0, b.Len())
	for _, d := range b.Items() {
		out = append(out, d.Code)
	}
	return out
}
