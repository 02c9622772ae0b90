package models

// Order and order-item status vocabulary, in intended forward order. The
// workflow accepts any-to-any transitions; the forward order is only what the
// kitchen UI proposes as the next step.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusPreparing = "preparing"
	StatusReady     = "ready"
	StatusDelivered = "delivered"
)

var statusFlow = []string{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusDelivered,
}

// ValidStatus reports whether s is one of the five recognized values.
func ValidStatus(s string) bool {
	for _, v := range statusFlow {
		if v == s {
			return true
		}
	}
	return false
}

// NextStatus returns the suggested next step, or "" when current is
// delivered (terminal) or unrecognized.
func NextStatus(current string) string {
	for i, v := range statusFlow {
		if v == current && i < len(statusFlow)-1 {
			return statusFlow[i+1]
		}
	}
	return ""
}
