package dynamodb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dgduncan/go-error-pages/sources"
)

// API is the subset of *dynamodb.Client used by Source.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Config defines the configuration options for the DynamoDB page source.
type Config struct {
	Table string // defaults to sources.DefaultTable
}

// Source implements errorpages.Source using Amazon DynamoDB as the page
// store. Items are keyed by page path.
type Source struct {
	client API

	table string
	now   func() time.Time
}

type pageItem struct {
	Path       string `json:"path" dynamodbav:"path"`
	Content    []byte `json:"content" dynamodbav:"content"`
	ModifiedAt int64  `json:"modified_at" dynamodbav:"modified_at"` // unix nanoseconds
}

// Stat returns the modification time of the page stored at path. Only the
// modified_at attribute is fetched.
func (s *Source) Stat(ctx context.Context, path string) (time.Time, error) {
	item, err := s.get(ctx, path, &dynamodb.GetItemInput{
		ProjectionExpression:     aws.String("#m"),
		ExpressionAttributeNames: map[string]string{"#m": "modified_at"},
	})
	if err != nil {
		return time.Time{}, err
	}

	return time.Unix(0, item.ModifiedAt).UTC(), nil
}

// Open fetches the whole item with a consistent read so content and
// modification time describe the same write.
func (s *Source) Open(ctx context.Context, path string) (io.ReadCloser, time.Time, error) {
	item, err := s.get(ctx, path, &dynamodb.GetItemInput{})
	if err != nil {
		return nil, time.Time{}, err
	}

	return io.NopCloser(bytes.NewReader(item.Content)), time.Unix(0, item.ModifiedAt).UTC(), nil
}

// Put stores content at path, stamped with the current time.
func (s *Source) Put(ctx context.Context, path string, content []byte) error {
	av, err := attributevalue.MarshalMap(pageItem{
		Path:       path,
		Content:    content,
		ModifiedAt: s.now().UTC().UnixNano(),
	})
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	return err
}

func (s *Source) get(ctx context.Context, path string, input *dynamodb.GetItemInput) (*pageItem, error) {
	key, err := attributevalue.Marshal(path)
	if err != nil {
		return nil, err
	}

	input.Key = map[string]types.AttributeValue{
		"path": key,
	}
	input.ConsistentRead = aws.Bool(true)
	input.TableName = aws.String(s.table)

	output, err := s.client.GetItem(ctx, input)
	if err != nil {
		return nil, err
	}

	if output.Item == nil {
		return nil, fmt.Errorf("%s: %w", path, sources.ErrNotFound)
	}

	var item pageItem
	if err := attributevalue.UnmarshalMap(output.Item, &item); err != nil {
		return nil, err
	}

	return &item, nil
}

// New creates a new DynamoDB page source.
// Returns an error if the client is nil.
func New(client API, config *Config) (*Source, error) {
	if client == nil {
		return nil, sources.ValidationError{
			Reason: "nil client",
		}
	}

	table := sources.DefaultTable
	if config != nil && config.Table != "" {
		table = config.Table
	}

	return &Source{
		client: client,

		table: table,
		now:   time.Now,
	}, nil
}
