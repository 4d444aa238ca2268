// Package server exposes the claims backend over HTTP.
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/kylejryan/claims-intake-backend/internal/models"

	"github.com/gin-gonic/gin"
)

// ClaimStore persists claims.
type ClaimStore interface {
	NewID() string
	Submit(ctx context.Context, nc models.NewClaim) (models.Claim, error)
	ListByOwner(ctx context.Context, owner string) ([]models.Claim, error)
	Update(ctx context.Context, owner, claimID, title, claimType, details string) error
	Delete(ctx context.Context, owner, claimID string) error
	CountDue(ctx context.Context, owner string, days int) (int, []models.Claim, error)
}

// AttachmentStore uploads attachments and presigns reads of them.
type AttachmentStore interface {
	Upload(ctx context.Context, userID, claimID, filename string, body io.Reader, size int64, contentType string) (string, error)
	PresignRead(ctx context.Context, userID, claimID, filename string, ttl time.Duration) (string, time.Duration, error)
	PresignKey(ctx context.Context, key string, ttl time.Duration) (string, time.Duration, error)
	Delete(ctx context.Context, key string) error
}

// Identity is the user directory.
type Identity interface {
	Register(ctx context.Context, email, password string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error
}

// SubjectVerifier resolves a bearer ID token to its subject.
type SubjectVerifier interface {
	Subject(token string) (string, error)
}

// DueWindowDays is the window reported by /claims/count-due.
const DueWindowDays = 30

// Options tunes the handler.
type Options struct {
	// MaxUploadBytes caps the size of a submit-claim request body.
	MaxUploadBytes int64
	// PresignTTL is the lifetime of attachment URLs handed to clients.
	PresignTTL time.Duration
	// Verifier, when set, checks an Authorization bearer token against the
	// user_id of claim requests that carry one.
	Verifier SubjectVerifier
}

// Handler serves the auth and claims routes.
type Handler struct {
	Claims      ClaimStore
	Attachments AttachmentStore
	Identity    Identity
	Opts        Options
}

// New returns a Handler.
func New(claims ClaimStore, attachments AttachmentStore, identity Identity, opts Options) *Handler {
	return &Handler{Claims: claims, Attachments: attachments, Identity: identity, Opts: opts}
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	useJSONFieldNames()
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), CORS())
	r.MaxMultipartMemory = 8 << 20

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
	}

	claims := r.Group("/claims")
	{
		claims.POST("/submit-claim", h.SubmitClaim)
		claims.GET("/get-claims", h.GetClaims)
		claims.POST("/update-claim", h.UpdateClaim)
		claims.DELETE("/delete-claim", h.DeleteClaim)
		claims.GET("/count-due", h.CountDue)
		claims.GET("/attachment-url", h.AttachmentURL)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return r
}

// CORS allows browser clients from any origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
