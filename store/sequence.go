package store

import (
	"context"
	"errors"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// counterSortKey is the sort key of the per-partition sequence record.
const counterSortKey = "counter"

// NextID issues the next integer identifier for a sub-scope within a
// partition, e.g. the next campground number under "facility::bcparks_1".
//
// The sequence record is created on first use, seeded at 0 for every scope
// in seedScopes, then incremented with a compare-and-swap against the value
// just read. A lost race surfaces as ErrAllocationConflict; NextID never
// retries internally, that decision belongs to the caller.
func (s *Store) NextID(ctx context.Context, scope, subScope string, seedScopes []string) (int64, error) {
	key := Key{PK: scope, SK: counterSortKey}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.Table),
		Key:       marshalKey(key),
	})
	if err != nil {
		return 0, err
	}

	var prev int64
	prevKnown := false
	if result.Item != nil {
		if m, ok := result.Item["counters"].(*types.AttributeValueMemberM); ok {
			if n, ok := m.Value[subScope].(*types.AttributeValueMemberN); ok {
				prev, err = strconv.ParseInt(n.Value, 10, 64)
				if err != nil {
					return 0, err
				}
				prevKnown = true
			}
		}
	} else {
		if err := s.seedCounters(ctx, key, subScope, seedScopes); err != nil {
			return 0, err
		}
		prevKnown = true
	}

	next := prev + 1

	update := &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.config.Table),
		Key:              marshalKey(key),
		UpdateExpression: aws.String("SET #c.#sub = :next"),
		ExpressionAttributeNames: map[string]string{
			"#c":   "counters",
			"#sub": subScope,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":next": &types.AttributeValueMemberN{Value: strconv.FormatInt(next, 10)},
		},
	}
	if prevKnown {
		update.ConditionExpression = aws.String("#c.#sub = :prev")
		update.ExpressionAttributeValues[":prev"] = &types.AttributeValueMemberN{
			Value: strconv.FormatInt(prev, 10),
		}
	} else {
		// Record exists but has never issued this sub-scope.
		update.ConditionExpression = aws.String("attribute_not_exists(#c.#sub)")
	}

	_, err = s.client.UpdateItem(ctx, update)
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			s.logger.Debug("sequence increment lost race",
				zap.String("scope", scope),
				zap.String("subScope", subScope),
			)
			return 0, ErrAllocationConflict
		}
		return 0, err
	}

	return next, nil
}

// seedCounters creates the sequence record with every listed sub-scope at 0.
// Losing the creation race is an allocation conflict like any other.
func (s *Store) seedCounters(ctx context.Context, key Key, subScope string, seedScopes []string) error {
	counters := make(map[string]types.AttributeValue, len(seedScopes)+1)
	for _, scope := range seedScopes {
		counters[scope] = &types.AttributeValueMemberN{Value: "0"}
	}
	counters[subScope] = &types.AttributeValueMemberN{Value: "0"}

	item := marshalKey(key)
	item["counters"] = &types.AttributeValueMemberM{Value: counters}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.config.Table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrAllocationConflict
		}
		return err
	}
	return nil
}
