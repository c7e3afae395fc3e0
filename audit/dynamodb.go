package audit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DDBClient is the subset of the DynamoDB API the sink needs; tests
// substitute a fake.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoDBSink writes events to a DynamoDB table.
//
// Table schema:
//   - Partition key: pipeline (string)
//   - Sort key: happened_at (string, RFC3339Nano; nanosecond precision
//     keeps same-run events ordered)
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name curago-audit \
//	  --attribute-definitions AttributeName=pipeline,AttributeType=S AttributeName=happened_at,AttributeType=S \
//	  --key-schema AttributeName=pipeline,KeyType=HASH AttributeName=happened_at,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DynamoDBSink struct {
	client DDBClient
	table  string
}

// NewDynamoDBSink creates a sink writing to the given table.
func NewDynamoDBSink(client DDBClient, table string) *DynamoDBSink {
	return &DynamoDBSink{client: client, table: table}
}

// NewDynamoDBSinkDefault creates a sink using the default AWS
// credential chain.
func NewDynamoDBSinkDefault(ctx context.Context, table string) (*DynamoDBSink, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return NewDynamoDBSink(dynamodb.NewFromConfig(cfg), table), nil
}

// Record implements Sink.
func (s *DynamoDBSink) Record(ctx context.Context, ev Event) error {
	if ev.HappenedAt.IsZero() {
		ev.HappenedAt = time.Now().UTC()
	}

	item := map[string]types.AttributeValue{
		"pipeline":     &types.AttributeValueMemberS{Value: ev.Pipeline},
		"happened_at":  &types.AttributeValueMemberS{Value: ev.HappenedAt.Format(time.RFC3339Nano)},
		"action":       &types.AttributeValueMemberS{Value: ev.Action},
		"version":      &types.AttributeValueMemberS{Value: ev.Version},
		"record_count": &types.AttributeValueMemberN{Value: strconv.Itoa(ev.RecordCount)},
	}
	if ev.Detail != "" {
		item["detail"] = &types.AttributeValueMemberS{Value: ev.Detail}
	}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put audit event: %w", err)
	}
	return nil
}
