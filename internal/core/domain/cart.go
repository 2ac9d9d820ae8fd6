package domain

import "time"

// UniqueItemQuantity is the only quantity a cart entry can hold.
const UniqueItemQuantity = 1

type CartEntry struct {
	ID        string
	BuyerID   string
	ListingID string
	Quantity  int
	Selected  bool
	CreatedAt time.Time
}

// CartLine is a cart entry together with the listing it points at. Listing is
// nil when the listing no longer exists.
type CartLine struct {
	Entry   CartEntry
	Listing *Listing
}

// Subtotal uses the live listing price, not a snapshot.
func (l CartLine) Subtotal() int64 {
	if l.Listing == nil {
		return 0
	}
	return int64(l.Entry.Quantity) * l.Listing.Price
}

type CartSummary struct {
	Lines       []CartLine
	TotalAmount int64
}

// Summarize totals the selected lines only.
func Summarize(lines []CartLine) CartSummary {
	summary := CartSummary{Lines: lines}
	for _, line := range lines {
		if line.Entry.Selected {
			summary.TotalAmount += line.Subtotal()
		}
	}
	return summary
}

// CartUpdate carries the optional fields of a cart entry edit.
type CartUpdate struct {
	Quantity *int
	Selected *bool
}
