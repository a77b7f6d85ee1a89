package store

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// Store provides conditional, versioned persistence over one DynamoDB table.
type Store struct {
	client DynamoClient
	config Config
	logger *zap.Logger
}

// New creates a new Store instance.
func New(client DynamoClient, config Config, logger *zap.Logger) *Store {
	config.validate()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client: client,
		config: config,
		logger: logger,
	}
}

// Config returns the store's effective configuration.
func (s *Store) Config() Config {
	return s.config
}

// Item is a retrieved record with its engine-managed fields decoded.
type Item struct {
	// Raw is the raw DynamoDB item.
	Raw map[string]types.AttributeValue

	// Key is the record's composite key.
	Key Key

	// Version is the optimistic-concurrency version.
	Version int64

	// CreationDate is the ISO 8601 creation timestamp.
	CreationDate string

	// LastUpdated is the ISO 8601 last update timestamp.
	LastUpdated string
}

// StringAttr returns a string attribute from the raw item, or "".
func (i *Item) StringAttr(name string) string {
	if v, ok := i.Raw[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

// Get retrieves a record by key, returning ErrNotFound if missing.
func (s *Store) Get(ctx context.Context, key Key) (*Item, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.Table),
		Key:       marshalKey(key),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}
	return unmarshalItem(result.Item), nil
}

// QueryInput defines parameters for querying records within a partition.
type QueryInput struct {
	// PK is the partition key to query.
	PK string

	// SKPrefix optionally restricts results to sort keys with the prefix.
	SKPrefix string

	// IndexName is the optional GSI/LSI to query.
	IndexName string

	// Limit is the maximum number of items to return (0 = no limit).
	Limit int32

	// ScanIndexForward determines sort order (true = ascending).
	ScanIndexForward *bool
}

// Query returns all records in a partition, paginating through the result
// set. Ordering follows the sort key.
func (s *Store) Query(ctx context.Context, input QueryInput) ([]*Item, error) {
	keyCond := "pk = :pk"
	exprValues := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: input.PK},
	}
	if input.SKPrefix != "" {
		keyCond += " AND begins_with(sk, :skprefix)"
		exprValues[":skprefix"] = &types.AttributeValueMemberS{Value: input.SKPrefix}
	}

	queryInput := &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.Table),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeValues: exprValues,
	}
	if input.IndexName != "" {
		queryInput.IndexName = aws.String(input.IndexName)
	}
	if input.Limit > 0 {
		queryInput.Limit = aws.Int32(input.Limit)
	}
	if input.ScanIndexForward != nil {
		queryInput.ScanIndexForward = input.ScanIndexForward
	}

	var items []*Item
	paginator := dynamodb.NewQueryPaginator(s.client, queryInput)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			items = append(items, unmarshalItem(raw))
		}
	}

	s.logger.Debug("query complete",
		zap.String("pk", input.PK),
		zap.Int("items", len(items)),
	)
	return items, nil
}

func marshalKey(key Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: key.PK},
		"sk": &types.AttributeValueMemberS{Value: key.SK},
	}
}

// unmarshalItem converts a DynamoDB item to an Item struct.
func unmarshalItem(raw map[string]types.AttributeValue) *Item {
	item := &Item{Raw: raw}

	if v, ok := raw["pk"].(*types.AttributeValueMemberS); ok {
		item.Key.PK = v.Value
	}
	if v, ok := raw["sk"].(*types.AttributeValueMemberS); ok {
		item.Key.SK = v.Value
	}
	if v, ok := raw["version"].(*types.AttributeValueMemberN); ok {
		item.Version, _ = strconv.ParseInt(v.Value, 10, 64)
	}
	if v, ok := raw["creationDate"].(*types.AttributeValueMemberS); ok {
		item.CreationDate = v.Value
	}
	if v, ok := raw["lastUpdated"].(*types.AttributeValueMemberS); ok {
		item.LastUpdated = v.Value
	}

	return item
}
