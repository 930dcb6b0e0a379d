package domain

import "github.com/sajidhasan/bike-store-checkout/pkg/apperrors"

// ValidateReservation checks whether quantity units can be taken from p
// during order placement. Out-of-stock is reported before insufficient
// stock so a fully drained product reads as such, not as a shortfall.
func ValidateReservation(p Product, quantity int) error {
	if p.Quantity == 0 {
		return apperrors.OutOfStock("product %s is out of stock", p.ID)
	}
	if p.Quantity < quantity {
		return apperrors.InsufficientStock("product %s has %d units, %d requested", p.ID, p.Quantity, quantity)
	}
	return nil
}

// ValidateDeduction checks the catalog-management inventory update
// path. A deduction of zero is only accepted when the product is
// already marked out of stock; negative deductions are never accepted.
func ValidateDeduction(p Product, quantity int) error {
	if quantity < 0 || (quantity == 0 && p.InStock) {
		return apperrors.InvalidAdjustment("quantity must be greater than zero unless marking out of stock")
	}
	if p.Quantity < quantity {
		return apperrors.InsufficientStock("product %s has %d units, %d requested", p.ID, p.Quantity, quantity)
	}
	return nil
}

// Deduct applies a validated deduction and recomputes the derived
// in-stock flag.
func Deduct(p Product, quantity int) Product {
	p.Quantity -= quantity
	p.InStock = p.Quantity > 0
	return p
}
