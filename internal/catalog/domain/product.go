package domain

import "time"

// Product is one catalog entry. InStock is derived: it must equal
// Quantity > 0 after every mutation, and repositories recompute it
// whenever they touch Quantity.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	ImageURL    string    `json:"imageUrl"`
	Rating      float64   `json:"rating"`
	PriceCents  int64     `json:"priceCents"`
	Quantity    int       `json:"quantity"`
	InStock     bool      `json:"inStock"`
	IsDeleted   bool      `json:"isDeleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Update carries the optional catalog-management field overwrites.
// Quantity changes normally go through the inventory path; the only
// exception is the explicit quantity an administrator sets here.
type Update struct {
	Name        *string
	Brand       *string
	Description *string
	Type        *string
	ImageURL    *string
	Rating      *float64
	PriceCents  *int64
	Quantity    *int
	InStock     *bool
}
