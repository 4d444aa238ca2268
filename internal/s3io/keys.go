package s3io

import (
	"fmt"
	"strings"

	"github.com/kylejryan/claims-intake-backend/internal/validate"
)

// Metadata keys written on every attachment.
const (
	MetaUserID  = "user_id"
	MetaClaimID = "claim_id"
)

// BuildKey constructs the S3 key for an attachment of claimID owned by
// userID. The file name is sanitized so the key always has three segments.
func BuildKey(userID, claimID, filename string) string {
	return fmt.Sprintf("%s/%s/%s", userID, claimID, validate.SanitizeFilename(filename))
}

// ParseKey extracts userID, claimID and file name from an attachment key.
func ParseKey(key string) (userID, claimID, filename string, ok bool) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// UploadMetadata builds the user metadata stored with an attachment.
func UploadMetadata(userID, claimID string) map[string]string {
	return map[string]string{
		MetaUserID:  userID,
		MetaClaimID: claimID,
	}
}
