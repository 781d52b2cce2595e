package models

// PaymentStatus is the state of an add-balance request.
type PaymentStatus string

const (
	// PaymentPending is a request waiting for an admin decision.
	PaymentPending PaymentStatus = "pending"
	// PaymentApproved is an accepted request.
	PaymentApproved PaymentStatus = "approved"
	// PaymentRejected is a declined request.
	PaymentRejected PaymentStatus = "rejected"
)

// MonthlyTotal is the amount credited in one month.
type MonthlyTotal struct {
	Month       int     `json:"month"`
	Year        int     `json:"year"`
	TotalAmount float64 `json:"totalAmount"`
}

var monthLabels = [...]string{
	"", "Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// MonthLabel returns the short English month name, or an empty string for
// months outside 1..12.
func (m MonthlyTotal) MonthLabel() string {
	if m.Month < 1 || m.Month >= len(monthLabels) {
		return ""
	}

	return monthLabels[m.Month]
}
