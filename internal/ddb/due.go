package ddb

import (
	"time"

	"github.com/kylejryan/claims-intake-backend/internal/models"
)

// DueDate returns the due date of a claim submitted at submitted.
func DueDate(submitted time.Time) time.Time {
	return submitted.Add(models.DueWindow)
}

// CountDueWithin counts the claims whose due date falls in [now, now+days].
// Both ends are inclusive. Claims with an unparseable due date are skipped.
func CountDueWithin(claims []models.Claim, days int, now time.Time) int {
	if days < 0 {
		return 0
	}
	end := now.Add(time.Duration(days) * 24 * time.Hour)
	n := 0
	for _, c := range claims {
		due := c.Due()
		if due.IsZero() {
			continue
		}
		if !due.Before(now) && !due.After(end) {
			n++
		}
	}
	return n
}
