// Package dynamo keeps the Sensaphone session in a DynamoDB table so that
// concurrent Lambda instances share one login.
package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"pump_control/internal/models"
)

// sessionKey is the partition key value of the single credential item.
const sessionKey = "sensaphone_session"

// API is the subset of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type CredentialStore struct {
	Client    API
	TableName string
}

type credentialItem struct {
	PK        string    `dynamodbav:"pk"`
	Token     string    `dynamodbav:"token"`
	AccountID int64     `dynamodbav:"account_id"`
	IssuedAt  time.Time `dynamodbav:"issued_at"`
	ExpiresAt time.Time `dynamodbav:"expires_at"`
	UpdatedAt int64     `dynamodbav:"updated_at"`
}

func NewCredentialStore(client API, tableName string) (*CredentialStore, error) {
	if tableName == "" {
		return nil, fmt.Errorf("dynamodb credential table is not set")
	}
	if client == nil {
		return nil, fmt.Errorf("dynamodb client is not initialized")
	}
	return &CredentialStore{Client: client, TableName: tableName}, nil
}

// NewClient loads the default AWS config (env, shared files, Lambda role) and
// returns a DynamoDB client for region, or the SDK default when region is empty.
func NewClient(ctx context.Context, region string) (*dynamodb.Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg), nil
}

// Get returns the stored credential, or nil when the item does not exist.
func (s *CredentialStore) Get(ctx context.Context) (*models.Credential, error) {
	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.TableName),
		Key:            map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: sessionKey}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read credential from dynamodb: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var item credentialItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return &models.Credential{
		Token:     item.Token,
		AccountID: item.AccountID,
		IssuedAt:  item.IssuedAt.UTC(),
		ExpiresAt: item.ExpiresAt.UTC(),
	}, nil
}

// Put replaces the stored credential.
func (s *CredentialStore) Put(ctx context.Context, c models.Credential) error {
	if c.Token == "" {
		return fmt.Errorf("%w: empty session token", models.ErrInvalidInput)
	}

	item, err := attributevalue.MarshalMap(credentialItem{
		PK:        sessionKey,
		Token:     c.Token,
		AccountID: c.AccountID,
		IssuedAt:  c.IssuedAt.UTC(),
		ExpiresAt: c.ExpiresAt.UTC(),
		UpdatedAt: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.TableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to store credential in dynamodb: %w", err)
	}
	return nil
}
