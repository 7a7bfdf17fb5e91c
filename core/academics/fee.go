package academics

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// FeeStatus is the payment state of a fee record, derived from its amounts
// and due date.
type FeeStatus string

const (
	FeePending FeeStatus = "pending"
	FeePartial FeeStatus = "partial"
	FeePaid    FeeStatus = "paid"
	FeeOverdue FeeStatus = "overdue"
)

const defaultLatePenaltyPercent = 2

// GetFeeStatus derives the fee state at time `now`.
func GetFeeStatus(totalAmount, paidAmount int64, dueDate, now time.Time) FeeStatus {
	switch {
	case paidAmount >= totalAmount:
		return FeePaid
	case paidAmount > 0:
		return FeePartial
	case now.After(dueDate):
		return FeeOverdue
	default:
		return FeePending
	}
}

// LateFee computes the penalty on an overdue base amount. Zero before the due
// date; a flat percentage of the base once overdue.
func LateFee(dueDate time.Time, baseAmount int64, now time.Time, penaltyPercent ...int64) int64 {
	pct := int64(defaultLatePenaltyPercent)
	if len(penaltyPercent) > 0 {
		pct = penaltyPercent[0]
	}
	if !now.After(dueDate) {
		return 0
	}
	return (baseAmount * pct) / 100
}

// Discount computes a percentage discount on an amount, truncated.
func Discount(amount, discountPercent int64) int64 {
	return (amount * discountPercent) / 100
}

// GeneratePaymentID returns a unique payment reference, e.g. PAY-KX2M91-A3F0QZ.
func GeneratePaymentID() string {
	return generateRef("PAY")
}

// GenerateReceiptNumber returns a unique receipt reference, e.g. RCP-KX2M91-A3F0.
func GenerateReceiptNumber() string {
	return generateRef("RCP")
}

func generateRef(prefix string) string {
	ts := strconv.FormatInt(time.Now().UnixNano()/int64(time.Millisecond), 36)
	rnd := strconv.FormatInt(rand.Int63n(36*36*36*36*36*36), 36)
	return strings.ToUpper(fmt.Sprintf("%s-%s-%s", prefix, ts, rnd))
}
