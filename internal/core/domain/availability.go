package domain

// AdjustAvailability re-derives the available count after an inventory edit.
// The quantity delta is applied to available, then clamped into [0, newQuantity].
func AdjustAvailability(available, oldQuantity, newQuantity int) int {
	next := available + (newQuantity - oldQuantity)
	return clamp(next, 0, newQuantity)
}

// AvailableAfterReturn puts one copy back on the shelf, never above quantity
func AvailableAfterReturn(available, quantity int) int {
	return clamp(available+1, 0, quantity)
}

// BorrowedCountAfterReturn decrements a patron's active-loan counter, never below zero
func BorrowedCountAfterReturn(count int) int {
	return max(0, count-1)
}

// ClampAvailable forces available into [0, quantity]
func ClampAvailable(available, quantity int) int {
	return clamp(available, 0, quantity)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return min(max(v, lo), hi)
}
