package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingState is the derived billing position of a contract at a point in
// time. It is computed fresh on every call and never persisted.
type BillingState struct {
	DueDate       time.Time
	DaysRemaining int // >= 0; zero when due today or overdue
	DaysOverdue   int // >= 0; mutually exclusive with DaysRemaining
	BaseAmount    decimal.Decimal
	FinalAmount   decimal.Decimal // late-fee adjusted; equals BaseAmount when not overdue
	Overdue       bool
}

// AmountMatches reports whether a stored instrument amount equals the
// current final amount within one cent.
func (b BillingState) AmountMatches(amount float64) bool {
	diff := decimal.NewFromFloat(amount).Sub(b.FinalAmount).Abs()
	return diff.LessThan(decimal.NewFromFloat(0.01))
}
