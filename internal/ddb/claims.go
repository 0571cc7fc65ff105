package ddb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/insureco/claims-backend/internal/models"
)

// ClaimIDIndex is the GSI that resolves a claim by its id alone (admin lookups).
const ClaimIDIndex = "claim_id-index"

// ClaimRepo wraps a DynamoDB client and table name for claim operations.
type ClaimRepo struct {
	DB    *dynamodb.Client
	Table string
}

// Put inserts a new claim record, ensuring no duplicate exists.
func (r *ClaimRepo) Put(ctx context.Context, c models.Claim) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return err
	}
	_, err = r.DB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &r.Table,
		Item:                item,
		ConditionExpression: awsStr("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	var ccf *ddbtypes.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ErrAlreadyExists
	}
	return err
}

// Get fetches one claim by owner and id.
func (r *ClaimRepo) Get(ctx context.Context, userID, claimID string) (models.Claim, error) {
	pk, sk := MakeClaimKeys(userID, claimID)
	out, err := r.DB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &r.Table,
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: pk},
			"SK": &ddbtypes.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return models.Claim{}, err
	}
	if out.Item == nil {
		return models.Claim{}, ErrNotFound
	}
	var c models.Claim
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return models.Claim{}, err
	}
	return c, nil
}

// GetByID resolves a claim by id alone via the claim-id GSI.
func (r *ClaimRepo) GetByID(ctx context.Context, claimID string) (models.Claim, error) {
	out, err := r.DB.Query(ctx, &dynamodb.QueryInput{
		TableName:              &r.Table,
		IndexName:              awsStr(ClaimIDIndex),
		KeyConditionExpression: awsStr("claim_id = :cid"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":cid": &ddbtypes.AttributeValueMemberS{Value: claimID},
		},
		Limit: awsInt32(1),
	})
	if err != nil {
		return models.Claim{}, err
	}
	if len(out.Items) == 0 {
		return models.Claim{}, ErrNotFound
	}
	var c models.Claim
	if err := attributevalue.UnmarshalMap(out.Items[0], &c); err != nil {
		return models.Claim{}, err
	}
	return c, nil
}

// ListByUser returns the user's claims, newest first.
func (r *ClaimRepo) ListByUser(ctx context.Context, userID string, limit int32) ([]models.Claim, error) {
	pk, _ := MakeClaimKeys(userID, "")
	out, err := r.DB.Query(ctx, &dynamodb.QueryInput{
		TableName:              &r.Table,
		KeyConditionExpression: awsStr("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk": &ddbtypes.AttributeValueMemberS{Value: pk},
			":sk": &ddbtypes.AttributeValueMemberS{Value: "CLAIM#"},
		},
		Limit: awsInt32(limit),
	})
	if err != nil {
		return nil, err
	}
	claims, err := unmarshalClaims(out.Items)
	if err != nil {
		return nil, err
	}
	sortByCreatedDesc(claims)
	return claims, nil
}

// Filter narrows a claim listing. Zero values mean "any".
type Filter struct {
	Status models.ClaimStatus
	Type   models.ClaimType
	UserID string
}

// List returns claims matching the filter, newest first. User-scoped listings
// run as a query; store-wide listings (admin dashboard) scan the table, which
// is acceptable at prototype scale.
func (r *ClaimRepo) List(ctx context.Context, f Filter) ([]models.Claim, error) {
	var claims []models.Claim
	var err error
	if f.UserID != "" {
		claims, err = r.ListByUser(ctx, f.UserID, 0)
	} else {
		claims, err = r.scanAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	filtered := claims[:0]
	for _, c := range claims {
		if f.Status != "" && f.Status != "all" && c.Status != f.Status {
			continue
		}
		if f.Type != "" && c.Type != f.Type {
			continue
		}
		filtered = append(filtered, c)
	}
	sortByCreatedDesc(filtered)
	return filtered, nil
}

// HistoryForUser returns the user's other claims, excluding the one given.
func (r *ClaimRepo) HistoryForUser(ctx context.Context, userID, excludeClaimID string) ([]models.Claim, error) {
	claims, err := r.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	history := claims[:0]
	for _, c := range claims {
		if c.ClaimID == excludeClaimID {
			continue
		}
		history = append(history, c)
	}
	return history, nil
}

// UpdateStatus moves a claim to a new status and appends one status-history
// entry. The condition expression refuses transitions out of terminal states;
// those surface as ErrTerminalStatus.
func (r *ClaimRepo) UpdateStatus(ctx context.Context, userID, claimID string, status models.ClaimStatus, note, actor string) (models.Claim, error) {
	pk, sk := MakeClaimKeys(userID, claimID)

	if note == "" {
		note = fmt.Sprintf("Status changed to %s", status)
	}
	entry := models.StatusHistoryEntry{
		Status:    status,
		Timestamp: NowISO(),
		Note:      note,
		By:        actor,
	}
	entryAV, err := attributevalue.Marshal([]models.StatusHistoryEntry{entry})
	if err != nil {
		return models.Claim{}, err
	}

	update := "SET #st = :status, updated_at = :now, status_history = list_append(status_history, :entry)"
	values := map[string]ddbtypes.AttributeValue{
		":status":     &ddbtypes.AttributeValueMemberS{Value: string(status)},
		":now":        &ddbtypes.AttributeValueMemberS{Value: entry.Timestamp},
		":entry":      entryAV,
		":approved":   &ddbtypes.AttributeValueMemberS{Value: string(models.StatusApproved)},
		":rejected":   &ddbtypes.AttributeValueMemberS{Value: string(models.StatusRejected)},
	}
	if actor != "" {
		update += ", reviewed_by = :actor"
		values[":actor"] = &ddbtypes.AttributeValueMemberS{Value: actor}
	}

	out, err := r.DB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &r.Table,
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: pk},
			"SK": &ddbtypes.AttributeValueMemberS{Value: sk},
		},
		UpdateExpression:          awsStr(update),
		ConditionExpression:       awsStr("attribute_exists(PK) AND NOT #st IN (:approved, :rejected)"),
		ExpressionAttributeNames:  map[string]string{"#st": "status"},
		ExpressionAttributeValues: values,
		ReturnValues:              ddbtypes.ReturnValueAllNew,
	})
	var ccf *ddbtypes.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		// Distinguish "missing" from "terminal" for the caller's status code.
		if _, getErr := r.Get(ctx, userID, claimID); errors.Is(getErr, ErrNotFound) {
			return models.Claim{}, ErrNotFound
		}
		return models.Claim{}, ErrTerminalStatus
	}
	if err != nil {
		return models.Claim{}, err
	}

	var c models.Claim
	if err := attributevalue.UnmarshalMap(out.Attributes, &c); err != nil {
		return models.Claim{}, err
	}
	return c, nil
}

// AttachDocument appends one document to an existing, non-terminal claim.
func (r *ClaimRepo) AttachDocument(ctx context.Context, userID, claimID string, doc models.Document) error {
	claim, err := r.Get(ctx, userID, claimID)
	if err != nil {
		return err
	}
	if claim.Status.IsTerminal() {
		return ErrTerminalStatus
	}

	claim.Documents = append(claim.Documents, doc)
	claim.UpdatedAt = NowISO()
	item, err := attributevalue.MarshalMap(claim)
	if err != nil {
		return err
	}
	_, err = r.DB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.Table,
		Item:      item,
	})
	return err
}

// FinalizeDocument marks one attached document as uploaded, recording size,
// etag and upload time reported by S3.
func (r *ClaimRepo) FinalizeDocument(ctx context.Context, userID, claimID, docID string, size int64, etag, uploadedAt string) error {
	claim, err := r.Get(ctx, userID, claimID)
	if err != nil {
		return err
	}

	found := false
	for i := range claim.Documents {
		if claim.Documents[i].ID != docID {
			continue
		}
		claim.Documents[i].SizeBytes = size
		claim.Documents[i].ETag = strings.Trim(etag, "\"")
		claim.Documents[i].UploadedAt = uploadedAt
		found = true
		break
	}
	if !found {
		return fmt.Errorf("document %s not attached to claim %s: %w", docID, claimID, ErrNotFound)
	}

	claim.UpdatedAt = NowISO()
	item, err := attributevalue.MarshalMap(claim)
	if err != nil {
		return err
	}
	_, err = r.DB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.Table,
		Item:      item,
	})
	return err
}

// ---- helpers ----

func (r *ClaimRepo) scanAll(ctx context.Context) ([]models.Claim, error) {
	var items []map[string]ddbtypes.AttributeValue
	var startKey map[string]ddbtypes.AttributeValue
	for {
		out, err := r.DB.Scan(ctx, &dynamodb.ScanInput{
			TableName:         &r.Table,
			FilterExpression:  awsStr("begins_with(SK, :sk)"),
			ExclusiveStartKey: startKey,
			ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
				":sk": &ddbtypes.AttributeValueMemberS{Value: "CLAIM#"},
			},
		})
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return unmarshalClaims(items)
}

func unmarshalClaims(items []map[string]ddbtypes.AttributeValue) ([]models.Claim, error) {
	claims := make([]models.Claim, 0, len(items))
	for _, item := range items {
		var c models.Claim
		if err := attributevalue.UnmarshalMap(item, &c); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, nil
}

func sortByCreatedDesc(claims []models.Claim) {
	sort.SliceStable(claims, func(i, j int) bool {
		return claims[i].CreatedAt > claims[j].CreatedAt
	})
}

func awsInt32(n int32) *int32 {
	if n <= 0 {
		return nil
	}
	return &n
}
