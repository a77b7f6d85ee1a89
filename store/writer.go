package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// CommitResult reports what a Commit applied.
type CommitResult struct {
	// Applied is the number of write intents committed.
	Applied int

	// Chunks is the number of store-level transactions submitted.
	Chunks int
}

// Commit resolves write intents into conditional operations and submits
// them as atomic transactions.
//
// Intents are split into chunks of at most Config.ChunkSize and submitted
// in input order. Each chunk is all-or-nothing; there is NO atomicity
// across chunks. When a chunk fails, chunks before it stay committed and
// the returned CommitResult counts them. Condition failures surface as a
// *ConflictError naming the offending keys.
func (s *Store) Commit(ctx context.Context, intents []WriteIntent) (CommitResult, error) {
	var result CommitResult

	for start := 0; start < len(intents); start += s.config.ChunkSize {
		end := start + s.config.ChunkSize
		if end > len(intents) {
			end = len(intents)
		}
		chunk := intents[start:end]

		items := make([]types.TransactWriteItem, len(chunk))
		for i, intent := range chunk {
			item, err := s.toTransactItem(intent)
			if err != nil {
				return result, fmt.Errorf("intent %d (%v): %w", start+i, intent.Key, err)
			}
			items[i] = item
		}

		_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items,
		})
		if err != nil {
			mapped := s.mapTransactionError(err, chunk, result.Chunks)
			s.logger.Warn("transaction chunk failed",
				zap.Int("chunk", result.Chunks),
				zap.Int("size", len(chunk)),
				zap.Error(mapped),
			)
			return result, mapped
		}

		result.Chunks++
		result.Applied += len(chunk)
	}

	s.logger.Debug("commit complete",
		zap.Int("applied", result.Applied),
		zap.Int("chunks", result.Chunks),
	)
	return result, nil
}

// toTransactItem resolves one write intent into a conditional operation.
func (s *Store) toTransactItem(intent WriteIntent) (types.TransactWriteItem, error) {
	switch intent.Op {
	case OpCreate:
		item, err := attributevalue.MarshalMap(intent.Attributes)
		if err != nil {
			return types.TransactWriteItem{}, err
		}
		for k, v := range marshalKey(intent.Key) {
			item[k] = v
		}
		return types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(s.config.Table),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(pk)"),
			},
		}, nil

	case OpUpdate:
		return s.toUpdateItem(intent)

	case OpDelete:
		return types.TransactWriteItem{
			Delete: &types.Delete{
				TableName:           aws.String(s.config.Table),
				Key:                 marshalKey(intent.Key),
				ConditionExpression: aws.String("attribute_exists(pk)"),
			},
		}, nil
	}
	return types.TransactWriteItem{}, fmt.Errorf("corral: unsupported operation %v", intent.Op)
}

// toUpdateItem builds the update expression for a partial attribute delta.
func (s *Store) toUpdateItem(intent WriteIntent) (types.TransactWriteItem, error) {
	var setClauses, addClauses, removeClauses []string
	exprNames := map[string]string{}
	exprValues := map[string]types.AttributeValue{}
	i := 0

	bind := func(name string, value any) (string, string, error) {
		nameKey := fmt.Sprintf("#attr%d", i)
		valueKey := fmt.Sprintf(":val%d", i)
		i++
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return "", "", err
		}
		exprNames[nameKey] = name
		exprValues[valueKey] = av
		return nameKey, valueKey, nil
	}

	for _, name := range sortedFields(intent.Attributes) {
		nameKey, valueKey, err := bind(name, intent.Attributes[name])
		if err != nil {
			return types.TransactWriteItem{}, err
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
	}
	for _, name := range sortedFields(intent.Additions) {
		nameKey, valueKey, err := bind(name, intent.Additions[name])
		if err != nil {
			return types.TransactWriteItem{}, err
		}
		addClauses = append(addClauses, fmt.Sprintf("%s %s", nameKey, valueKey))
	}
	for _, name := range intent.Removals {
		nameKey := fmt.Sprintf("#attr%d", i)
		i++
		exprNames[nameKey] = name
		removeClauses = append(removeClauses, nameKey)
	}

	var parts []string
	if len(setClauses) > 0 {
		parts = append(parts, "SET "+strings.Join(setClauses, ", "))
	}
	if len(addClauses) > 0 {
		parts = append(parts, "ADD "+strings.Join(addClauses, ", "))
	}
	if len(removeClauses) > 0 {
		parts = append(parts, "REMOVE "+strings.Join(removeClauses, ", "))
	}
	if len(parts) == 0 {
		return types.TransactWriteItem{}, fmt.Errorf("corral: empty update for %v", intent.Key)
	}

	condition := "attribute_exists(pk)"
	if intent.CheckVersion {
		exprNames["#version"] = "version"
		exprValues[":expectedVersion"] = &types.AttributeValueMemberN{
			Value: strconv.FormatInt(intent.ExpectedVersion, 10),
		}
		condition += " AND #version = :expectedVersion"
	}

	return types.TransactWriteItem{
		Update: &types.Update{
			TableName:                 aws.String(s.config.Table),
			Key:                       marshalKey(intent.Key),
			UpdateExpression:          aws.String(strings.Join(parts, " ")),
			ConditionExpression:       aws.String(condition),
			ExpressionAttributeNames:  exprNames,
			ExpressionAttributeValues: exprValues,
		},
	}, nil
}

// mapTransactionError classifies a failed chunk. Cancellation reasons are
// positional, so each failed condition maps back to the intent at the same
// index. The conflict kind follows the operation that failed: a create
// losing its key race is retryable, a version mismatch is not.
func (s *Store) mapTransactionError(err error, chunk []WriteIntent, chunkIndex int) error {
	var txErr *types.TransactionCanceledException
	if !errors.As(err, &txErr) {
		return err
	}

	conflict := &ConflictError{Chunk: chunkIndex}
	for i, reason := range txErr.CancellationReasons {
		if reason.Code == nil || *reason.Code != "ConditionalCheckFailed" || i >= len(chunk) {
			continue
		}
		intent := chunk[i]
		conflict.Keys = append(conflict.Keys, intent.Key)

		kind := conflictKind(intent)
		// Version conflicts dominate: they must reach the caller as the
		// business-level signal even when a create raced in the same chunk.
		if conflict.kind == nil || kind == ErrVersionConflict {
			conflict.kind = kind
		}
	}

	if conflict.kind == nil {
		return err
	}
	return conflict
}

func conflictKind(intent WriteIntent) error {
	switch intent.Op {
	case OpCreate:
		return ErrAllocationConflict
	case OpUpdate:
		if intent.CheckVersion {
			return ErrVersionConflict
		}
		return ErrNotFound
	case OpDelete:
		return ErrNotFound
	}
	return ErrNotFound
}
