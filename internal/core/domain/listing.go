package domain

import "time"

type SaleStatus string

const (
	SaleStatusOnSale   SaleStatus = "on_sale"
	SaleStatusReserved SaleStatus = "reserved"
	SaleStatusSold     SaleStatus = "sold"
)

type Listing struct {
	ID             string
	SellerID       string
	SellerNickname string
	Title          string
	Price          int64 // minor currency units
	Status         SaleStatus
	Suppressed     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Purchasable reports whether the listing can currently be put in a cart.
func (l Listing) Purchasable() bool {
	return l.Status == SaleStatusOnSale && !l.Suppressed
}
