// Package api contains types for the API requests and responses.
package api

import "github.com/kylejryan/claims-intake-backend/internal/models"

// CredentialsRequest is the body of /auth/register and /auth/login.
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is returned after a successful sign up.
type RegisterResponse struct {
	Message  string `json:"message"`
	UserSub  string `json:"UserSub"`
	Username string `json:"Username"`
}

// LoginResponse carries the tokens and the verified subject.
type LoginResponse struct {
	Message string        `json:"message"`
	Tokens  models.Tokens `json:"tokens"`
	UserID  string        `json:"user_id"`
}

// LogoutRequest is the body of /auth/logout.
type LogoutRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
}

// ForgotPasswordRequest is the body of /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest is the body of /auth/reset-password.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// StatusResponse is the acknowledgement of the claim routes.
type StatusResponse struct {
	Status string `json:"status"`
}

// SubmitClaimResponse is returned by /claims/submit-claim. FileURL is null
// when no file was attached.
type SubmitClaimResponse struct {
	Status  string  `json:"status"`
	ClaimID string  `json:"claim_id"`
	FileURL *string `json:"file_url"`
}

// ClaimsResponse lists an owner's claims.
type ClaimsResponse struct {
	Claims []models.Claim `json:"claims"`
}

// UpdateClaimRequest is the body of /claims/update-claim.
type UpdateClaimRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	ClaimID string `json:"claim_id" binding:"required"`
	Title   string `json:"ClaimTitle" binding:"required"`
	Type    string `json:"ClaimType" binding:"required"`
	Details string `json:"ClaimDetails" binding:"required"`
}

// CountDueResponse reports how many claims fall due in the window.
type CountDueResponse struct {
	Count int `json:"claims_due_in_next_30_days"`
}

// AttachmentURLResponse is a freshly presigned read URL.
type AttachmentURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}
