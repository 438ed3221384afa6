package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
)

const threadEntityType = "THREAD"

// DynamoDBAPI is the subset of the DynamoDB client used by the store.
type DynamoDBAPI interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// ddbThread is the single-item layout of one thread.
type ddbThread struct {
	PK             string                 `dynamodbav:"PK"`
	SK             string                 `dynamodbav:"SK"`
	EntityType     string                 `dynamodbav:"EntityType"`
	Position       int                    `dynamodbav:"Position"`
	TQName         string                 `dynamodbav:"tqName"`
	ComponentNodes []domain.ComponentNode `dynamodbav:"componentNode"`
}

// DynamoDBStore reads threads stored one item per thread in a DynamoDB table.
type DynamoDBStore struct {
	client    DynamoDBAPI
	tableName string
	logger    *zap.Logger
}

// NewDynamoDBStore creates a store over tableName.
func NewDynamoDBStore(client DynamoDBAPI, tableName string, logger *zap.Logger) *DynamoDBStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DynamoDBStore{client: client, tableName: tableName, logger: logger}
}

// ListThreads implements NodeStore. Threads come back in Position order.
func (s *DynamoDBStore) ListThreads(ctx context.Context, prefix string) ([]domain.Thread, error) {
	filter := expression.Name("EntityType").Equal(expression.Value(threadEntityType))
	if prefix != "" {
		filter = filter.And(expression.Name("tqName").BeginsWith(prefix))
	}
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build scan expression: %w", err)
	}

	var items []ddbThread
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(s.tableName),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, s.classify(err, "Scan")
		}

		var page []ddbThread
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal threads: %w", err)
		}
		items = append(items, page...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })

	threads := make([]domain.Thread, 0, len(items))
	for _, it := range items {
		threads = append(threads, domain.Thread{TQName: it.TQName, ComponentNodes: it.ComponentNodes})
	}
	return threads, nil
}

// FindNodeByID implements NodeStore by scanning the full thread set.
func (s *DynamoDBStore) FindNodeByID(ctx context.Context, id string) (*domain.Node, error) {
	threads, err := s.ListThreads(ctx, "")
	if err != nil {
		return nil, err
	}
	return FindNode(threads, id), nil
}

// Import writes threads as items, 25 per batch.
func (s *DynamoDBStore) Import(ctx context.Context, threads []domain.Thread) error {
	const batchSize = 25

	requests := make([]types.WriteRequest, 0, len(threads))
	for i, t := range threads {
		item, err := attributevalue.MarshalMap(ddbThread{
			PK:             fmt.Sprintf("THREAD#%s", t.TQName),
			SK:             "METADATA",
			EntityType:     threadEntityType,
			Position:       i,
			TQName:         t.TQName,
			ComponentNodes: t.ComponentNodes,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal thread %s: %w", t.TQName, err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	for i := 0; i < len(requests); i += batchSize {
		end := min(i+batchSize, len(requests))
		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{s.tableName: requests[i:end]},
		})
		if err != nil {
			return s.classify(err, "BatchWriteItem")
		}
		if n := len(out.UnprocessedItems[s.tableName]); n > 0 {
			s.logger.Warn("Unprocessed thread items", zap.Int("count", n))
			return fmt.Errorf("%d thread items were not written", n)
		}
	}
	return nil
}

func (s *DynamoDBStore) classify(err error, operation string) error {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		s.logger.Error("DynamoDB operation failed",
			zap.String("operation", operation),
			zap.String("table", s.tableName),
			zap.String("code", ae.ErrorCode()),
			zap.String("message", ae.ErrorMessage()),
		)
		if ae.ErrorCode() == "ResourceNotFoundException" {
			return fmt.Errorf("table %s not found: %w", s.tableName, err)
		}
	}
	return fmt.Errorf("dynamodb %s failed: %w", operation, err)
}
