package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"pump_control/internal/models"
)

// fakeAPI keeps one item in memory, keyed by table name.
type fakeAPI struct {
	items  map[string]map[string]types.AttributeValue
	getErr error
	putErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{items: map[string]map[string]types.AttributeValue{}}
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &dynamodb.GetItemOutput{Item: f.items[aws.ToString(in.TableName)]}, nil
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.items[aws.ToString(in.TableName)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func TestNewCredentialStore_RequiresTableAndClient(t *testing.T) {
	if _, err := NewCredentialStore(newFakeAPI(), ""); err == nil {
		t.Fatal("expected error for empty table name")
	}
	if _, err := NewCredentialStore(nil, "sessions"); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestCredentialStore_RoundTrip(t *testing.T) {
	api := newFakeAPI()
	store, err := NewCredentialStore(api, "sessions")
	if err != nil {
		t.Fatalf("NewCredentialStore: %v", err)
	}
	ctx := context.Background()

	got, err := store.Get(ctx)
	if err != nil || got != nil {
		t.Fatalf("empty table: want (nil, nil), got (%+v, %v)", got, err)
	}

	issued := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	want := models.Credential{Token: "tok", AccountID: 99, IssuedAt: issued, ExpiresAt: issued.Add(2 * time.Hour)}
	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	pk, ok := api.items["sessions"]["pk"].(*types.AttributeValueMemberS)
	if !ok || pk.Value != sessionKey {
		t.Fatalf("partition key not written: %#v", api.items["sessions"]["pk"])
	}

	got, err = store.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Token != want.Token || got.AccountID != want.AccountID || !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Fatalf("round trip mismatch: want %+v, got %+v", want, got)
	}
}

func TestCredentialStore_Errors(t *testing.T) {
	api := newFakeAPI()
	store, _ := NewCredentialStore(api, "sessions")
	ctx := context.Background()

	if err := store.Put(ctx, models.Credential{}); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("empty token: want ErrInvalidInput, got %v", err)
	}

	api.putErr = errors.New("throttled")
	if err := store.Put(ctx, models.Credential{Token: "t"}); err == nil {
		t.Fatal("expected put error")
	}

	api.getErr = errors.New("throttled")
	if _, err := store.Get(ctx); err == nil {
		t.Fatal("expected get error")
	}
}
