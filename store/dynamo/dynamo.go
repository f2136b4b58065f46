package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/zlnvch/homegate/store"
)

// DynamoRecordStore maps the ordered record keyspace onto a single DynamoDB
// table: the record type becomes the partition key and the record id the
// sort key, so a type's range scan is a Query over one partition in SK
// order. BatchDelete uses TransactWriteItems to keep its all-or-nothing
// contract (per chunk of 100, the transaction limit).
type DynamoRecordStore struct {
	client    *dynamodb.Client
	tableName string
}

type dynamoRecord struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	V  []byte `dynamodbav:"V"`
}

func NewDynamoRecordStore(ctx context.Context, devMode bool, dynamodbEndpoint string, tableName string) (*DynamoRecordStore, error) {
	client, err := newDynamoDBClient(ctx, devMode, dynamodbEndpoint)
	if err != nil {
		return nil, err
	}

	tables, err := getTables(client, ctx)
	if err != nil {
		return nil, err
	}

	foundTable := false
	for _, table := range tables {
		if table == tableName {
			foundTable = true
			break
		}
	}
	if !foundTable {
		return nil, fmt.Errorf("given table name '%s' not found in dynamodb", tableName)
	}

	return &DynamoRecordStore{client: client, tableName: tableName}, nil
}

func (dynamoStore *DynamoRecordStore) Put(ctx context.Context, key string, value []byte) error {
	pk, sk, ok := store.SplitKey(key)
	if !ok {
		return fmt.Errorf("malformed record key: %q", key)
	}

	avMap, err := attributevalue.MarshalMap(dynamoRecord{PK: pk, SK: sk, V: value})
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	_, err = dynamoStore.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(dynamoStore.tableName),
		Item:      avMap,
	})
	if err != nil {
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

func (dynamoStore *DynamoRecordStore) Get(ctx context.Context, key string) ([]byte, error) {
	pk, sk, ok := store.SplitKey(key)
	if !ok {
		return nil, fmt.Errorf("malformed record key: %q", key)
	}

	resp, err := dynamoStore.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(dynamoStore.tableName),
		Key:            recordKey(pk, sk),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem failed: %w", err)
	}
	if resp.Item == nil {
		return nil, store.ErrItemNotFound
	}

	var rec dynamoRecord
	if err := attributevalue.UnmarshalMap(resp.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return rec.V, nil
}

func (dynamoStore *DynamoRecordStore) Delete(ctx context.Context, key string) error {
	pk, sk, ok := store.SplitKey(key)
	if !ok {
		return fmt.Errorf("malformed record key: %q", key)
	}

	_, err := dynamoStore.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(dynamoStore.tableName),
		Key:       recordKey(pk, sk),
	})
	if err != nil {
		return fmt.Errorf("DeleteItem failed: %w", err)
	}
	return nil
}

func (dynamoStore *DynamoRecordStore) ScanRange(ctx context.Context, low string, high string, fn func(key string, value []byte) (bool, error)) error {
	pk, lowSK, ok := store.SplitKey(low)
	if !ok {
		return fmt.Errorf("malformed range bound: %q", low)
	}

	// The high bound always closes the type's partition ("<type>!\""), so
	// the scan is a single-partition Query. An id remainder on the low
	// bound narrows the sort-key range.
	keyCond := "PK = :pk"
	exprAttrValues := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: pk},
	}
	if lowSK != "" {
		keyCond = "PK = :pk AND SK > :low"
		exprAttrValues[":low"] = &types.AttributeValueMemberS{Value: lowSK}
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(dynamoStore.tableName),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeValues: exprAttrValues,
		ScanIndexForward:          aws.Bool(true),
	}

	paginator := dynamodb.NewQueryPaginator(dynamoStore.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}

		var recs []dynamoRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &recs); err != nil {
			return fmt.Errorf("failed to unmarshal page items: %w", err)
		}

		for _, rec := range recs {
			stop, err := fn(store.Key(rec.PK, rec.SK), rec.V)
			if err != nil {
				return err
			}
			if stop {
				return nil
			}
		}
	}
	return nil
}

// Transactions take at most 100 items.
const transactChunk = 100

func (dynamoStore *DynamoRecordStore) BatchDelete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	items := make([]types.TransactWriteItem, 0, len(keys))
	for _, key := range keys {
		pk, sk, ok := store.SplitKey(key)
		if !ok {
			return fmt.Errorf("malformed record key: %q", key)
		}
		items = append(items, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(dynamoStore.tableName),
				Key:       recordKey(pk, sk),
			},
		})
	}

	for start := 0; start < len(items); start += transactChunk {
		end := start + transactChunk
		if end > len(items) {
			end = len(items)
		}
		_, err := dynamoStore.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items[start:end],
		})
		if err != nil {
			var canceled *types.TransactionCanceledException
			if errors.As(err, &canceled) {
				return fmt.Errorf("batch delete transaction canceled: %w", err)
			}
			return fmt.Errorf("TransactWriteItems failed: %w", err)
		}
	}
	return nil
}

func recordKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}
