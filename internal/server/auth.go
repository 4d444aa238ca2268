package server

import (
	"net/http"

	"github.com/kylejryan/claims-intake-backend/internal/api"
	"github.com/kylejryan/claims-intake-backend/internal/httpx"
	"github.com/kylejryan/claims-intake-backend/internal/validate"

	"github.com/gin-gonic/gin"
)

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req api.CredentialsRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Identity.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusCreated, api.RegisterResponse{
		Message:  "User registered successfully",
		UserSub:  u.SubjectID,
		Username: u.Email,
	})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req api.CredentialsRequest
	if !bindJSON(c, &req) {
		return
	}
	s, err := h.Identity.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, api.LoginResponse{
		Message: "Login successful",
		Tokens:  s.Tokens,
		UserID:  s.SubjectID,
	})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(c *gin.Context) {
	var req api.LogoutRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Identity.SignOut(c.Request.Context(), req.AccessToken); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, api.MessageResponse{Message: "Logged out successfully"})
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req api.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Identity.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, api.MessageResponse{Message: "Password reset code sent"})
}

// ResetPassword handles POST /auth/reset-password. Any failure after the
// request is well formed, a wrong code included, is reported as 500.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req api.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	// Binding rejects absent fields; whitespace-only ones are caught here
	// since every later failure on this route answers 500.
	if err := validate.Required(
		validate.F("email", req.Email),
		validate.F("otp", req.OTP),
		validate.F("newPassword", req.NewPassword),
	); err != nil {
		httpx.Error(c, err)
		return
	}
	if err := h.Identity.ConfirmPasswordReset(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		httpx.ErrorStatus(c, http.StatusInternalServerError, err)
		return
	}
	httpx.JSON(c, http.StatusOK, api.MessageResponse{Message: "Password has been reset successfully"})
}
