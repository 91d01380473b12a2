package driver

import (
	"fmt"
	"io"

	"github.com/nihei9/earley/grammar/symbol"
)

type completedKey struct {
	lhs   symbol.Symbol
	start int
}

// position is the set of items ending at one boundary of the input. Items are kept in insertion order
// and are never removed.
type position struct {
	index int
	items []*Item
	keys  map[itemKey]*Item

	// waiting indexes the incomplete items by the symbol after the dot.
	waiting map[symbol.Symbol][]*Item

	// completed indexes the complete items by their LHS and start.
	completed map[completedKey][]*Item
}

func newPosition(index int) *position {
	return &position{
		index:     index,
		keys:      map[itemKey]*Item{},
		waiting:   map[symbol.Symbol][]*Item{},
		completed: map[completedKey][]*Item{},
	}
}

// add inserts an item unless the position already has an item of the same key. It returns the item
// stored in the position and whether the item was inserted.
func (p *position) add(it *Item) (*Item, bool) {
	k := it.key()
	if existing, ok := p.keys[k]; ok {
		return existing, false
	}
	p.keys[k] = it
	p.items = append(p.items, it)
	if it.IsComplete() {
		ck := completedKey{
			lhs:   it.lhs,
			start: it.start,
		}
		p.completed[ck] = append(p.completed[ck], it)
	} else {
		next := it.next()
		p.waiting[next] = append(p.waiting[next], it)
	}
	return it, true
}

// completedItems returns the complete items of a symbol starting at a position.
func (p *position) completedItems(lhs symbol.Symbol, start int) []*Item {
	return p.completed[completedKey{
		lhs:   lhs,
		start: start,
	}]
}

// Chart is a read-only view of the positions built by one run.
type Chart struct {
	positions []*position
}

// Len returns the number of positions. A chart for n tokens has n+1 positions.
func (c *Chart) Len() int {
	return len(c.positions)
}

// Items returns the items of a position in the order the parser found them.
func (c *Chart) Items(index int) []*Item {
	if index < 0 || index >= len(c.positions) {
		return nil
	}
	return c.positions[index].items
}

// ItemCount returns the number of items in all positions.
func (c *Chart) ItemCount() int {
	n := 0
	for _, pos := range c.positions {
		n += len(pos.items)
	}
	return n
}

func (c *Chart) Print(w io.Writer) {
	for _, pos := range c.positions {
		fmt.Fprintf(w, "# %v\n", pos.index)
		for _, it := range pos.items {
			fmt.Fprintf(w, "%v\n", it)
		}
	}
}
