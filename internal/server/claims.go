package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kylejryan/claims-intake-backend/internal/api"
	"github.com/kylejryan/claims-intake-backend/internal/apperr"
	"github.com/kylejryan/claims-intake-backend/internal/httpx"
	"github.com/kylejryan/claims-intake-backend/internal/models"
	"github.com/kylejryan/claims-intake-backend/internal/s3io"
	"github.com/kylejryan/claims-intake-backend/internal/validate"

	"github.com/gin-gonic/gin"
)

// SubmitClaim handles POST /claims/submit-claim. The optional file is
// uploaded before the record is written so the record can carry its URL.
func (h *Handler) SubmitClaim(c *gin.Context) {
	ctx := c.Request.Context()
	if h.Opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Opts.MaxUploadBytes)
	}
	if err := c.Request.ParseMultipartForm(8 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		httpx.Error(c, apperr.Wrap(apperr.KindValidation, "invalid form: "+err.Error(), err))
		return
	}

	nc := models.NewClaim{
		UserID:  c.PostForm("user_id"),
		Title:   c.PostForm("claimTitle"),
		Type:    c.PostForm("claimType"),
		Details: c.PostForm("claimDetails"),
	}
	if err := validate.Required(
		validate.F("user_id", nc.UserID),
		validate.F("claimTitle", nc.Title),
		validate.F("claimType", nc.Type),
		validate.F("claimDetails", nc.Details),
	); err != nil {
		httpx.Error(c, err)
		return
	}
	if err := h.authorizeOwner(c, nc.UserID); err != nil {
		httpx.Error(c, err)
		return
	}
	nc.ClaimID = h.Claims.NewID()

	var fileURL *string
	fh, err := c.FormFile("file")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			httpx.Error(c, apperr.Wrap(apperr.KindValidation, "unreadable file", err))
			return
		}
		defer f.Close()
		key, err := h.Attachments.Upload(ctx, nc.UserID, nc.ClaimID, fh.Filename, f, fh.Size, fh.Header.Get("Content-Type"))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		url, _, err := h.Attachments.PresignKey(ctx, key, h.Opts.PresignTTL)
		if err != nil {
			httpx.Error(c, err)
			return
		}
		nc.AttachmentKey, nc.AttachmentURL = key, url
		fileURL = &url
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		httpx.Error(c, apperr.Wrap(apperr.KindValidation, "invalid file: "+err.Error(), err))
		return
	}

	claim, err := h.Claims.Submit(ctx, nc)
	if err != nil {
		if nc.AttachmentKey != "" {
			h.discardAttachment(c, nc)
		}
		httpx.Error(c, err)
		return
	}
	slog.InfoContext(ctx, "claim submitted", "user_id", claim.UserID, "claim_id", claim.ClaimID, "attachment", fileURL != nil)
	httpx.JSON(c, http.StatusOK, api.SubmitClaimResponse{
		Status:  "Claim submitted successfully",
		ClaimID: claim.ClaimID,
		FileURL: fileURL,
	})
}

// discardAttachment removes an upload whose claim record was never written.
// The object is left in place, and logged, when the delete fails too.
func (h *Handler) discardAttachment(c *gin.Context, nc models.NewClaim) {
	ctx := c.Request.Context()
	if err := h.Attachments.Delete(ctx, nc.AttachmentKey); err != nil {
		slog.WarnContext(ctx, "orphaned attachment", "user_id", nc.UserID, "claim_id", nc.ClaimID, "key", nc.AttachmentKey, "error", err)
		return
	}
	slog.InfoContext(ctx, "discarded attachment of failed claim", "user_id", nc.UserID, "claim_id", nc.ClaimID, "key", nc.AttachmentKey)
}

// GetClaims handles GET /claims/get-claims. Stored attachment URLs are
// replaced with fresh ones since the persisted URL expires.
func (h *Handler) GetClaims(c *gin.Context) {
	ctx := c.Request.Context()
	owner := c.Query("user_id")
	if err := validate.Required(validate.F("user_id", owner)); err != nil {
		httpx.Error(c, err)
		return
	}
	if err := h.authorizeOwner(c, owner); err != nil {
		httpx.Error(c, err)
		return
	}
	claims, err := h.Claims.ListByOwner(ctx, owner)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	if len(claims) == 0 {
		httpx.JSON(c, http.StatusNotFound, api.MessageResponse{Message: "No claims found for this user."})
		return
	}
	for i := range claims {
		key := claims[i].AttachmentKey
		if key == "" {
			continue
		}
		if keyOwner, keyClaim, _, ok := s3io.ParseKey(key); !ok || keyOwner != owner || keyClaim != claims[i].ClaimID {
			slog.WarnContext(ctx, "attachment key does not match claim", "user_id", owner, "claim_id", claims[i].ClaimID, "key", key)
			continue
		}
		url, _, err := h.Attachments.PresignKey(ctx, key, h.Opts.PresignTTL)
		if err != nil {
			slog.WarnContext(ctx, "presign attachment", "user_id", owner, "claim_id", claims[i].ClaimID, "error", err)
			continue
		}
		claims[i].AttachmentURL = url
	}
	httpx.JSON(c, http.StatusOK, api.ClaimsResponse{Claims: claims})
}

// UpdateClaim handles POST /claims/update-claim.
func (h *Handler) UpdateClaim(c *gin.Context) {
	var req api.UpdateClaimRequest
	if !bindJSON(c, &req) {
		return
	}
	// Whitespace-only values pass binding.
	if err := validate.Required(
		validate.F("user_id", req.UserID),
		validate.F("claim_id", req.ClaimID),
		validate.F("ClaimTitle", req.Title),
		validate.F("ClaimType", req.Type),
		validate.F("ClaimDetails", req.Details),
	); err != nil {
		httpx.Error(c, err)
		return
	}
	if err := h.authorizeOwner(c, req.UserID); err != nil {
		httpx.Error(c, err)
		return
	}
	if err := h.Claims.Update(c.Request.Context(), req.UserID, req.ClaimID, req.Title, req.Type, req.Details); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, api.StatusResponse{Status: "Claim updated successfully"})
}

// DeleteClaim handles DELETE /claims/delete-claim.
func (h *Handler) DeleteClaim(c *gin.Context) {
	owner, claimID := c.Query("user_id"), c.Query("claim_id")
	if err := validate.Required(validate.F("user_id", owner), validate.F("claim_id", claimID)); err != nil {
		httpx.Error(c, err)
		return
	}
	if err := h.authorizeOwner(c, owner); err != nil {
		httpx.Error(c, err)
		return
	}
	if err := h.Claims.Delete(c.Request.Context(), owner, claimID); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, api.StatusResponse{Status: "Claim deleted successfully"})
}

// CountDue handles GET /claims/count-due.
func (h *Handler) CountDue(c *gin.Context) {
	owner := c.Query("user_id")
	if err := validate.Required(validate.F("user_id", owner)); err != nil {
		httpx.Error(c, err)
		return
	}
	if err := h.authorizeOwner(c, owner); err != nil {
		httpx.Error(c, err)
		return
	}
	n, claims, err := h.Claims.CountDue(c.Request.Context(), owner, DueWindowDays)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	if len(claims) == 0 {
		httpx.JSON(c, http.StatusNotFound, api.MessageResponse{Message: "No claims found for this user."})
		return
	}
	httpx.JSON(c, http.StatusOK, api.CountDueResponse{Count: n})
}

// AttachmentURL handles GET /claims/attachment-url.
func (h *Handler) AttachmentURL(c *gin.Context) {
	owner, claimID, filename := c.Query("user_id"), c.Query("claim_id"), c.Query("filename")
	if err := validate.Required(
		validate.F("user_id", owner),
		validate.F("claim_id", claimID),
		validate.F("filename", filename),
	); err != nil {
		httpx.Error(c, err)
		return
	}
	if err := h.authorizeOwner(c, owner); err != nil {
		httpx.Error(c, err)
		return
	}
	url, ttl, err := h.Attachments.PresignRead(c.Request.Context(), owner, claimID, filename, h.Opts.PresignTTL)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.JSON(c, http.StatusOK, api.AttachmentURLResponse{URL: url, ExpiresIn: int(ttl.Seconds())})
}
