package domain

import "time"

// PurchaseRecord is the ledger row of a completed sale. Amount is the listing
// price captured when the sale happened.
type PurchaseRecord struct {
	ID          string
	BuyerID     string
	SellerID    string
	ListingID   string
	Quantity    int
	Amount      int64
	PurchasedAt time.Time
}

type PurchaseView struct {
	PurchaseRecord
	ListingTitle string
}
