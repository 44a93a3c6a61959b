package client

import "errors"

// ErrCartQuantityLimit is returned when an add would push a line past the
// per-item cap; the caller shows the notice instead of failing silently.
var ErrCartQuantityLimit = errors.New("maximum 10 per item")

const maxCartQuantity = 10

// Cart is the guest's pre-submission accumulator. It is purely local:
// totals come from the item snapshots cached at add time, so the cart
// always reflects the prices the guest was shown.
type Cart struct {
	entries map[uint]*cartEntry
}

type cartEntry struct {
	item     MenuItem
	quantity int
}

func NewCart() *Cart {
	return &Cart{entries: map[uint]*cartEntry{}}
}

// Add increments the line for item, capping at the per-item limit.
func (c *Cart) Add(item MenuItem) error {
	entry, ok := c.entries[item.ID]
	if !ok {
		c.entries[item.ID] = &cartEntry{item: item, quantity: 1}
		return nil
	}
	if entry.quantity >= maxCartQuantity {
		return ErrCartQuantityLimit
	}
	entry.quantity++
	return nil
}

// Remove decrements the line for item, deleting it at zero.
func (c *Cart) Remove(itemID uint) {
	entry, ok := c.entries[itemID]
	if !ok {
		return
	}
	entry.quantity--
	if entry.quantity <= 0 {
		delete(c.entries, itemID)
	}
}

// Quantity returns the current count for one item.
func (c *Cart) Quantity(itemID uint) int {
	if entry, ok := c.entries[itemID]; ok {
		return entry.quantity
	}
	return 0
}

// Total sums quantity times the cached unit price over all lines.
func (c *Cart) Total() float64 {
	var total float64
	for _, entry := range c.entries {
		total += float64(entry.quantity) * entry.item.PriceEUR
	}
	return total
}

// Lines renders the cart as submission payload lines.
func (c *Cart) Lines() []SubmitLine {
	lines := make([]SubmitLine, 0, len(c.entries))
	for _, entry := range c.entries {
		lines = append(lines, SubmitLine{
			ItemID:   entry.item.ID,
			Name:     entry.item.Name,
			Quantity: entry.quantity,
			PriceEUR: entry.item.PriceEUR,
		})
	}
	return lines
}

func (c *Cart) IsEmpty() bool {
	return len(c.entries) == 0
}

// Clear empties the cart. Called only after a confirmed submission.
func (c *Cart) Clear() {
	c.entries = map[uint]*cartEntry{}
}
