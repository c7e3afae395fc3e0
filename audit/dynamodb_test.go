package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

type fakeDDB struct {
	inputs []*dynamodb.PutItemInput
	err    error
}

func (f *fakeDDB) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &dynamodb.PutItemOutput{}, nil
}

func stringAttr(t *testing.T, item map[string]types.AttributeValue, key string) string {
	t.Helper()
	attr, ok := item[key].(*types.AttributeValueMemberS)
	require.True(t, ok, "attribute %s missing or not a string", key)
	return attr.Value
}

func TestDynamoDBSink_Record(t *testing.T) {
	fake := &fakeDDB{}
	sink := NewDynamoDBSink(fake, "curago-audit")

	at := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	err := sink.Record(context.Background(), Event{
		Pipeline:    "cmmc",
		Action:      ActionSnapshot,
		Version:     "v003",
		RecordCount: 42,
		Detail:      "weekly batch",
		HappenedAt:  at,
	})
	require.NoError(t, err)
	require.Len(t, fake.inputs, 1)

	in := fake.inputs[0]
	require.Equal(t, "curago-audit", aws.ToString(in.TableName))
	require.Equal(t, "cmmc", stringAttr(t, in.Item, "pipeline"))
	require.Equal(t, ActionSnapshot, stringAttr(t, in.Item, "action"))
	require.Equal(t, "v003", stringAttr(t, in.Item, "version"))
	require.Equal(t, "weekly batch", stringAttr(t, in.Item, "detail"))
	require.Equal(t, at.Format(time.RFC3339Nano), stringAttr(t, in.Item, "happened_at"))

	count, ok := in.Item["record_count"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	require.Equal(t, "42", count.Value)
}

func TestDynamoDBSink_DefaultsTimestampAndOmitsDetail(t *testing.T) {
	fake := &fakeDDB{}
	sink := NewDynamoDBSink(fake, "curago-audit")

	before := time.Now().UTC()
	require.NoError(t, sink.Record(context.Background(), Event{
		Pipeline: "cmmc",
		Action:   ActionRollback,
		Version:  "v001",
	}))

	in := fake.inputs[0]
	_, hasDetail := in.Item["detail"]
	require.False(t, hasDetail)

	stamp, err := time.Parse(time.RFC3339Nano, stringAttr(t, in.Item, "happened_at"))
	require.NoError(t, err)
	require.False(t, stamp.Before(before.Truncate(time.Second)))
}

func TestDynamoDBSink_PropagatesError(t *testing.T) {
	boom := errors.New("throttled")
	sink := NewDynamoDBSink(&fakeDDB{err: boom}, "curago-audit")

	err := sink.Record(context.Background(), Event{Action: ActionMerge})
	require.ErrorIs(t, err, boom)
}

func TestNopSink(t *testing.T) {
	require.NoError(t, NopSink{}.Record(context.Background(), Event{Action: ActionDelete}))
}
