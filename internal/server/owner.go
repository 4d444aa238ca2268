package server

import (
	"github.com/kylejryan/claims-intake-backend/internal/apperr"
	"github.com/kylejryan/claims-intake-backend/internal/authz"

	"github.com/gin-gonic/gin"
)

// authorizeOwner rejects a request whose bearer token belongs to someone
// other than owner. Requests without an Authorization header pass.
func (h *Handler) authorizeOwner(c *gin.Context, owner string) error {
	if h.Opts.Verifier == nil {
		return nil
	}
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil
	}
	token, ok := authz.BearerToken(header)
	if !ok {
		return apperr.Auth("malformed Authorization header", authz.ErrUnauthorized)
	}
	sub, err := h.Opts.Verifier.Subject(token)
	if err != nil {
		return err
	}
	if sub != owner {
		return apperr.Auth("token does not belong to user "+owner, authz.ErrUnauthorized)
	}
	return nil
}
