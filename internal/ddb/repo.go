// Package ddb provides a simple repository for interacting with DynamoDB for claim records.
package ddb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kylejryan/claims-intake-backend/internal/apperr"
	"github.com/kylejryan/claims-intake-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/oklog/ulid/v2"
)

// Key prefixes of the single-table layout.
const (
	userPrefix  = "USER#"
	claimPrefix = "CLAIM#"
)

// API is the subset of the DynamoDB client used by Repo.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Repo wraps a DynamoDB client and table name for claim operations.
type Repo struct {
	DB    API
	Table string
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// NewRepo returns a Repo for table.
func NewRepo(db API, table string) *Repo {
	return &Repo{DB: db, Table: table, Clock: time.Now}
}

func (r *Repo) now() time.Time {
	if r.Clock == nil {
		return time.Now()
	}
	return r.Clock()
}

// NewID generates a claim id. ULIDs are unique per process and sortable by
// creation time, which keeps an owner's partition in submission order.
func (r *Repo) NewID() string {
	return ulid.MustNew(ulid.Timestamp(r.now()), ulid.DefaultEntropy()).String()
}

// Submit inserts a new claim. The submission time is truncated to the second
// and the due date fixed at submission plus models.DueWindow. The put is
// guarded so an existing (owner, claim) key is never overwritten.
func (r *Repo) Submit(ctx context.Context, nc models.NewClaim) (models.Claim, error) {
	if strings.TrimSpace(nc.UserID) == "" {
		return models.Claim{}, apperr.Validation("user_id is required")
	}
	claimID := nc.ClaimID
	if claimID == "" {
		claimID = r.NewID()
	}

	submitted := r.now().UTC().Truncate(time.Second)
	pk, sk := MakeKeys(nc.UserID, claimID)
	c := models.Claim{
		PK:            pk,
		SK:            sk,
		UserID:        nc.UserID,
		ClaimID:       claimID,
		Title:         nc.Title,
		Type:          nc.Type,
		Details:       nc.Details,
		AttachmentURL: nc.AttachmentURL,
		AttachmentKey: nc.AttachmentKey,
		SubmittedAt:   FormatISO(submitted),
		DueAt:         FormatISO(DueDate(submitted)),
	}

	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return models.Claim{}, fmt.Errorf("marshal claim: %w", err)
	}
	_, err = r.DB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &r.Table,
		Item:                item,
		ConditionExpression: awsStr("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return models.Claim{}, apperr.Conflict("claim "+claimID+" already exists", err)
		}
		return models.Claim{}, apperr.Provider(err)
	}
	return c, nil
}

// ListByOwner returns every claim of owner. It queries the owner's partition
// rather than scanning the table, so other owners' items are never read.
func (r *Repo) ListByOwner(ctx context.Context, owner string) ([]models.Claim, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, apperr.Validation("user_id is required")
	}
	pk, _ := MakeKeys(owner, "")
	p := dynamodb.NewQueryPaginator(r.DB, &dynamodb.QueryInput{
		TableName:              &r.Table,
		KeyConditionExpression: awsStr("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
			":sk": &types.AttributeValueMemberS{Value: claimPrefix},
		},
	})

	var claims []models.Claim
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, apperr.Provider(err)
		}
		var batch []models.Claim
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal claims: %w", err)
		}
		claims = append(claims, batch...)
	}
	return claims, nil
}

// Update rewrites the title, type and details of an existing claim. Due date
// and attachment attributes are left untouched.
func (r *Repo) Update(ctx context.Context, owner, claimID, title, claimType, details string) error {
	pk, sk := MakeKeys(owner, claimID)
	_, err := r.DB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           &r.Table,
		Key:                 keyOf(pk, sk),
		UpdateExpression:    awsStr("SET ClaimTitle = :t, ClaimType = :ty, ClaimDetails = :d"),
		ConditionExpression: awsStr("attribute_exists(PK) AND attribute_exists(SK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":  &types.AttributeValueMemberS{Value: title},
			":ty": &types.AttributeValueMemberS{Value: claimType},
			":d":  &types.AttributeValueMemberS{Value: details},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return apperr.NotFound("claim " + claimID + " not found")
		}
		return apperr.Provider(err)
	}
	return nil
}

// Delete removes a claim. Deleting an absent key is not an error.
func (r *Repo) Delete(ctx context.Context, owner, claimID string) error {
	pk, sk := MakeKeys(owner, claimID)
	_, err := r.DB.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &r.Table,
		Key:       keyOf(pk, sk),
	})
	if err != nil {
		return apperr.Provider(err)
	}
	return nil
}

// CountDue lists the owner's claims and counts those due within days of now.
func (r *Repo) CountDue(ctx context.Context, owner string, days int) (int, []models.Claim, error) {
	claims, err := r.ListByOwner(ctx, owner)
	if err != nil {
		return 0, nil, err
	}
	return CountDueWithin(claims, days, r.now()), claims, nil
}

func keyOf(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// awsStr is a helper to get a pointer to a string literal.
func awsStr(s string) *string { return aws.String(s) }

// FormatISO renders t in UTC as RFC 3339.
func FormatISO(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// MakeKeys constructs the partition key (PK) and sort key (SK) for a claim record.
func MakeKeys(sub, claimID string) (pk, sk string) {
	return fmt.Sprintf("%s%s", userPrefix, sub), fmt.Sprintf("%s%s", claimPrefix, claimID)
}
