// Package cart implements the pure reconciliation rules for the shift cart:
// merge semantics per product, removal when a quantity reaches zero, and a
// first insert that always starts at one unit. It knows nothing about
// boards or persistence.
package cart

import "github.com/bfall/sawshift/internal/domain/models"

// ApplyDelta applies a quantity delta for a product and returns the
// resulting cart. When the product is already present the delta adjusts its
// quantity, removing the entry entirely at zero or below. When absent, a
// positive delta inserts the product at quantity 1 regardless of the delta
// magnitude (long-standing behavior the mobile clients rely on). An absent
// product with a non-positive delta returns the input slice unchanged so
// callers can cheaply detect the no-op.
func ApplyDelta(items []models.CartItem, product models.Product, delta int) []models.CartItem {
	for i, item := range items {
		if item.Product.ID != product.ID {
			continue
		}

		quantity := item.Quantity + delta
		if quantity <= 0 {
			return append(items[:i:i], items[i+1:]...)
		}

		next := make([]models.CartItem, len(items))
		copy(next, items)
		next[i].Quantity = quantity
		return next
	}

	if delta <= 0 {
		return items
	}

	return append(items[:len(items):len(items)], models.CartItem{Product: product, Quantity: 1})
}

// RemoveItem filters the product out of the cart regardless of quantity.
func RemoveItem(items []models.CartItem, productID string) []models.CartItem {
	next := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if item.Product.ID == productID {
			continue
		}
		next = append(next, item)
	}
	return next
}

// Clear empties the cart.
func Clear(items []models.CartItem) []models.CartItem {
	return []models.CartItem{}
}

// ItemCount sums the quantities across all entries.
func ItemCount(items []models.CartItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}
