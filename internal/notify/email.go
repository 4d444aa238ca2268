// Package notify turns newly inserted claims into emails published to the
// claims topic, and subscribes users to that topic.
package notify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kylejryan/claims-intake-backend/internal/models"

	"golang.org/x/text/unicode/norm"
)

const (
	missing       = "N/A"
	subjectPrefix = "Claim Submitted: "
	// SNS rejects subjects of 100 characters or more.
	maxSubjectLen = 99
)

// Email is a formatted notification.
type Email struct {
	Subject string
	Body    string
}

// FormatEmail renders the submission email for c.
func FormatEmail(c models.Claim) Email {
	var b strings.Builder
	b.WriteString("A new claim has been submitted.\n\n")
	fmt.Fprintf(&b, "Claim ID: %s\n", orNA(c.ClaimID))
	fmt.Fprintf(&b, "Title: %s\n", orNA(c.Title))
	fmt.Fprintf(&b, "Type: %s\n", orNA(c.Type))
	fmt.Fprintf(&b, "Details: %s\n", orNA(c.Details))
	fmt.Fprintf(&b, "Submission Date: %s\n", orNA(c.SubmittedAt))
	fmt.Fprintf(&b, "Due Date: %s\n", orNA(c.DueAt))
	return Email{
		Subject: Subject(c.Title),
		Body:    b.String(),
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return missing
	}
	return s
}

// Subject builds an SNS-safe subject line for title: folded to printable
// ASCII on a single line and cut to maxSubjectLen bytes.
func Subject(title string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(title) {
		switch {
		case r >= utf8.RuneSelf:
			// combining marks and anything without an ASCII decomposition
		case r < 0x20 || r == 0x7f:
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	s := subjectPrefix + strings.Join(strings.Fields(b.String()), " ")
	if len(s) > maxSubjectLen {
		s = strings.TrimRight(s[:maxSubjectLen], " ")
	}
	return strings.TrimRight(s, " ")
}
