package ddb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/insureco/claims-backend/internal/models"
)

// PolicyNumberIndex is the GSI that resolves a policy by its printed number.
const PolicyNumberIndex = "policy_number-index"

// PolicyRepo wraps a DynamoDB client and table name for policy lookups.
// Policies are read-only to this service.
type PolicyRepo struct {
	DB    *dynamodb.Client
	Table string
}

// Get fetches one policy by id.
func (r *PolicyRepo) Get(ctx context.Context, policyID string) (models.Policy, error) {
	pk, sk := MakePolicyKeys(policyID)
	out, err := r.DB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &r.Table,
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: pk},
			"SK": &ddbtypes.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return models.Policy{}, err
	}
	if out.Item == nil {
		return models.Policy{}, ErrNotFound
	}
	var p models.Policy
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return models.Policy{}, err
	}
	return p, nil
}

// FindByNumber resolves a policy by its printed policy number via a GSI.
func (r *PolicyRepo) FindByNumber(ctx context.Context, number string) (models.Policy, error) {
	out, err := r.DB.Query(ctx, &dynamodb.QueryInput{
		TableName:              &r.Table,
		IndexName:              awsStr(PolicyNumberIndex),
		KeyConditionExpression: awsStr("policy_number = :num"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":num": &ddbtypes.AttributeValueMemberS{Value: number},
		},
		Limit: awsInt32(1),
	})
	if err != nil {
		return models.Policy{}, err
	}
	if len(out.Items) == 0 {
		return models.Policy{}, ErrNotFound
	}
	var p models.Policy
	if err := attributevalue.UnmarshalMap(out.Items[0], &p); err != nil {
		return models.Policy{}, err
	}
	return p, nil
}
