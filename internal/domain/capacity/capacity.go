// Package capacity decides whether another participant fits.
package capacity

// CanAdmit reports whether a newcomer may join given the current count.
// A nil limit admits everyone. A zero limit is closed and admits no one;
// raising the limit is the only way to reopen it.
func CanAdmit(currentCount int, limit *int) bool {
	if limit == nil {
		return true
	}
	return currentCount < *limit
}

// Remaining returns the free slots, or -1 when unlimited.
func Remaining(currentCount int, limit *int) int {
	if limit == nil {
		return -1
	}
	if currentCount >= *limit {
		return 0
	}
	return *limit - currentCount
}
