package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kylejryan/claims-intake-backend/internal/awsutil"
	"github.com/kylejryan/claims-intake-backend/internal/models"

	"github.com/aws/aws-lambda-go/events"
)

// ClaimPublisher sends the notification for one claim.
type ClaimPublisher interface {
	Publish(ctx context.Context, c models.Claim) (string, error)
}

// Handler consumes the claim table's change feed.
type Handler struct {
	Publisher ClaimPublisher
}

// NewHandler returns a Handler publishing through p.
func NewHandler(p ClaimPublisher) *Handler {
	return &Handler{Publisher: p}
}

// HandleStream publishes one email per inserted claim. Modifications and
// removals are ignored. A failing record is logged and skipped so the rest
// of the batch still goes out; the feed may redeliver a batch, in which
// case the emails are sent again.
func (h *Handler) HandleStream(ctx context.Context, ev events.DynamoDBEvent) error {
	for _, rec := range ev.Records {
		if rec.EventName != string(events.DynamoDBOperationTypeInsert) {
			continue
		}
		if err := h.processRecord(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "notify: process error", "event_id", rec.EventID, "aws_code", awsutil.ErrorCode(err), "error", err)
		}
	}
	return nil
}

// processRecord handles a single stream record.
func (h *Handler) processRecord(ctx context.Context, rec events.DynamoDBEventRecord) error {
	c, err := ClaimFromImage(rec.Change.NewImage)
	if err != nil {
		return err
	}
	id, err := h.Publisher.Publish(ctx, c)
	if err != nil {
		return fmt.Errorf("publish %s/%s: %w", c.UserID, c.ClaimID, err)
	}
	slog.InfoContext(ctx, "claim notification sent", "user_id", c.UserID, "claim_id", c.ClaimID, "message_id", id)
	return nil
}

// ClaimFromImage decodes the string attributes of a stream image.
func ClaimFromImage(img map[string]events.DynamoDBAttributeValue) (models.Claim, error) {
	if len(img) == 0 {
		return models.Claim{}, fmt.Errorf("record has no new image")
	}
	c := models.Claim{
		UserID:        str(img, "UserID"),
		ClaimID:       str(img, "ClaimID"),
		Title:         str(img, "ClaimTitle"),
		Type:          str(img, "ClaimType"),
		Details:       str(img, "ClaimDetails"),
		AttachmentURL: str(img, "FileURL"),
		AttachmentKey: str(img, "AttachmentKey"),
		SubmittedAt:   str(img, "SubmissionDate"),
		DueAt:         str(img, "DueDate"),
	}
	if c.UserID == "" || c.ClaimID == "" {
		return models.Claim{}, fmt.Errorf("image missing UserID or ClaimID")
	}
	return c, nil
}

func str(img map[string]events.DynamoDBAttributeValue, name string) string {
	av, ok := img[name]
	if !ok || av.DataType() != events.DataTypeString {
		return ""
	}
	return av.String()
}
