// Package models defines the data models used in the application.
package models

import "time"

// DueWindow is the fixed offset between submission and due date.
const DueWindow = 30 * 24 * time.Hour

// Claim represents an insurance claim submitted by a user.
type Claim struct {
	// DynamoDB keys
	PK string `dynamodbav:"PK" json:"-"` // USER#<owner>
	SK string `dynamodbav:"SK" json:"-"` // CLAIM#<claimID> (ULID)

	UserID        string `dynamodbav:"UserID"                  json:"user_id"`
	ClaimID       string `dynamodbav:"ClaimID"                 json:"claim_id"`
	Title         string `dynamodbav:"ClaimTitle"              json:"title"`
	Type          string `dynamodbav:"ClaimType"               json:"type"`
	Details       string `dynamodbav:"ClaimDetails"            json:"details"`
	AttachmentURL string `dynamodbav:"FileURL,omitempty"       json:"attachment_url,omitempty"`
	AttachmentKey string `dynamodbav:"AttachmentKey,omitempty" json:"attachment_key,omitempty"`
	SubmittedAt   string `dynamodbav:"SubmissionDate"          json:"submitted_at"` // ISO8601, set once
	DueAt         string `dynamodbav:"DueDate"                 json:"due_date"`     // ISO8601, SubmittedAt + DueWindow
}

// NewClaim carries the caller-supplied fields of a submission. ClaimID may
// be preset when an attachment had to be keyed before the insert.
type NewClaim struct {
	ClaimID       string
	UserID        string
	Title         string
	Type          string
	Details       string
	AttachmentURL string
	AttachmentKey string
}

// Due parses DueAt. The zero time is returned for a malformed value.
func (c Claim) Due() time.Time {
	t, err := time.Parse(time.RFC3339, c.DueAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// User is the transient identity returned by the identity provider.
type User struct {
	SubjectID string
	Email     string
}

// Tokens holds the tokens issued on a successful authentication.
type Tokens struct {
	AccessToken  string `json:"AccessToken"`
	IDToken      string `json:"IdToken"`
	RefreshToken string `json:"RefreshToken,omitempty"`
	TokenType    string `json:"TokenType"`
	ExpiresIn    int32  `json:"ExpiresIn"`
}

// Session is the result of an authentication.
type Session struct {
	Tokens    Tokens
	SubjectID string
}
