/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"iter"
	"log/slog"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entityview/datastore"
	"github.com/suparena/entityview/errors"
	"github.com/suparena/entityview/query"
	"github.com/suparena/entityview/registry"
	"github.com/suparena/entityview/storagemodels"
)

// EntityTypeAttribute is injected into every stored item and names the
// record's registered type.
const EntityTypeAttribute = "EntityType"

// Client is the subset of the DynamoDB API the store uses. *dynamodb.Client
// satisfies it.
type Client interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
	Scan(ctx context.Context, params *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error)
}

// DynamodbDataStore implements datastore.DataStore[T] on a single DynamoDB
// table shared by every entity type.
type DynamodbDataStore[T any] struct {
	client     Client
	tableName  string
	entityType string
	scanOpts   storagemodels.ScanOptions
	logger     *slog.Logger
}

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// ClientConfig holds the connection settings for NewDynamoDBClient.
type ClientConfig struct {
	AccessKey string
	SecretKey string
	Region    string
	// Endpoint overrides the service endpoint, e.g. for DynamoDB Local.
	Endpoint string
}

// NewDynamoDBClient initializes a DynamoDB client. Static credentials are
// used when an access key is set; otherwise the default credential chain.
func NewDynamoDBClient(ctx context.Context, cc ClientConfig) (*sdk.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cc.Region)}
	if cc.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cc.AccessKey, cc.SecretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if cc.Endpoint != "" {
			o.BaseEndpoint = aws.String(cc.Endpoint)
		}
	})
	return client, nil
}

// Option configures a DynamodbDataStore.
type Option func(*options)

type options struct {
	entityType string
	scanOpts   []storagemodels.ScanOption
	logger     *slog.Logger
}

// WithEntityType overrides the EntityType value, which defaults to the
// registered type name.
func WithEntityType(name string) Option {
	return func(o *options) { o.entityType = name }
}

// WithScanOptions sets paging, retry and progress options for queries.
func WithScanOptions(opts ...storagemodels.ScanOption) Option {
	return func(o *options) { o.scanOpts = append(o.scanOpts, opts...) }
}

// WithLogger sets the logger used for paging diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// NewDynamodbDataStore constructs a new DynamodbDataStore for type T. T must
// have an index map registered with registry.RegisterIndexMap.
func NewDynamodbDataStore[T any](client Client, tableName string, opts ...Option) (*DynamodbDataStore[T], error) {
	if client == nil {
		return nil, errors.NewValidationError("client", "must not be nil")
	}
	if tableName == "" {
		return nil, errors.NewValidationError("tableName", "must not be empty")
	}
	if _, ok := registry.GetIndexMap[T](); !ok {
		return nil, noIndexMap[T]()
	}

	o := options{entityType: registry.NameOf(reflect.TypeFor[T]()), logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &DynamodbDataStore[T]{
		client:     client,
		tableName:  tableName,
		entityType: o.entityType,
		scanOpts:   storagemodels.Apply(o.scanOpts...),
		logger:     o.logger,
	}, nil
}

func noIndexMap[T any]() error {
	return fmt.Errorf("%w: %s", errors.ErrNoIndexMap, reflect.TypeFor[T]())
}

// expandMacros fills every template in indexMap with member values of entity.
// Macros name members by Go field name or json name. A template with an
// empty macro value expands to "".
func expandMacros(indexMap map[string]string, entity any) (map[string]string, error) {
	res := make(map[string]string, len(indexMap))
	for attr, template := range indexMap {
		var (
			expandErr error
			missing   bool
		)
		expanded := macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			v, err := query.MemberValue(entity, strings.Trim(macro, "{}"))
			if err != nil {
				expandErr = err
				return ""
			}
			s := ""
			if v != nil {
				s = fmt.Sprint(v)
			}
			if s == "" {
				missing = true
			}
			return s
		})
		if expandErr != nil {
			return nil, fmt.Errorf("failed to expand %s: %w", attr, expandErr)
		}
		if missing {
			expanded = ""
		}
		res[attr] = expanded
	}
	return res, nil
}

// expandStringKey replaces the macros of the PK and SK templates with key.
func expandStringKey(indexMap map[string]string, key string) map[string]string {
	expanded := make(map[string]string, 2)
	for _, attr := range []string{"PK", "SK"} {
		if template, ok := indexMap[attr]; ok {
			expanded[attr] = macroPattern.ReplaceAllLiteralString(template, key)
		}
	}
	return expanded
}

// buildKeyFromExpanded builds a DynamoDB key from the expanded index map.
// It requires non-empty values for "PK" and "SK".
func buildKeyFromExpanded(expanded map[string]string) (map[string]types.AttributeValue, error) {
	pk, okPK := expanded["PK"]
	sk, okSK := expanded["SK"]

	if !okPK || !okSK || pk == "" || sk == "" {
		return nil, errors.NewValidationError("key", "expanded index map missing valid PK or SK")
	}

	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}, nil
}

func (d *DynamodbDataStore[T]) keyFor(key string) (map[string]types.AttributeValue, error) {
	indexMap, ok := registry.GetIndexMap[T]()
	if !ok {
		return nil, noIndexMap[T]()
	}
	return buildKeyFromExpanded(expandStringKey(indexMap, key))
}

// GetOne retrieves a single item using a string key.
func (d *DynamodbDataStore[T]) GetOne(ctx context.Context, key string) (*T, error) {
	keyMap, err := d.keyFor(key)
	if err != nil {
		return nil, err
	}

	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: &d.tableName,
		Key:       keyMap,
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil || !d.owns(out.Item) {
		return nil, errors.NewNotFoundError(d.entityType, key)
	}
	return decodeItem[T](out.Item)
}

// Put stores entity, filling PK, SK and any GSI keys from the index map and
// injecting the EntityType attribute.
func (d *DynamodbDataStore[T]) Put(ctx context.Context, entity T) error {
	indexMap, ok := registry.GetIndexMap[T]()
	if !ok {
		return noIndexMap[T]()
	}

	item, err := encodeItem(entity)
	if err != nil {
		return err
	}
	expanded, err := expandMacros(indexMap, &entity)
	if err != nil {
		return err
	}
	if _, err := buildKeyFromExpanded(expanded); err != nil {
		return err
	}
	for attr, v := range expanded {
		if v == "" {
			// Sparse GSI: leave the attribute out.
			continue
		}
		item[attr] = &types.AttributeValueMemberS{Value: v}
	}
	item[EntityTypeAttribute] = &types.AttributeValueMemberS{Value: d.entityType}

	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: &d.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

// Delete removes an item using a string key. A missing item is reported as
// errors.ErrNotFound.
func (d *DynamodbDataStore[T]) Delete(ctx context.Context, key string) error {
	keyMap, err := d.keyFor(key)
	if err != nil {
		return err
	}

	_, err = d.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:           &d.tableName,
		Key:                 keyMap,
		ConditionExpression: aws.String("attribute_exists(PK) AND #et = :et"),
		ExpressionAttributeNames: map[string]string{
			"#et": EntityTypeAttribute,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":et": &types.AttributeValueMemberS{Value: d.entityType},
		},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return errors.NewNotFoundError(d.entityType, key)
		}
		return fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	return nil
}

// Key extracts the key of entity: the value of the PK template's macro.
func (d *DynamodbDataStore[T]) Key(entity T) (string, error) {
	return datastore.KeyOf(&entity)
}

// Query runs expr. Filters are pushed into a DynamoDB filter or key
// condition where possible; everything else runs in process over the pages
// as they arrive.
func (d *DynamodbDataStore[T]) Query(ctx context.Context, expr query.Expression) iter.Seq2[T, error] {
	if err := datastore.CheckQuery[T](expr, false); err != nil {
		return query.Failed[T](err)
	}
	return func(yield func(T, error) bool) {
		for v, err := range d.execute(ctx, expr) {
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(*v.(*T), nil) {
				return
			}
		}
	}
}

// Rows runs a projecting expr.
func (d *DynamodbDataStore[T]) Rows(ctx context.Context, expr query.Expression) iter.Seq2[query.Row, error] {
	if err := datastore.CheckQuery[T](expr, true); err != nil {
		return query.Failed[query.Row](err)
	}
	return func(yield func(query.Row, error) bool) {
		for v, err := range d.execute(ctx, expr) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(v.(query.Row), nil) {
				return
			}
		}
	}
}

func (d *DynamodbDataStore[T]) execute(ctx context.Context, expr query.Expression) iter.Seq2[any, error] {
	params, residual, err := d.plan(expr)
	if err != nil {
		return query.Failed[any](err)
	}
	d.logger.Debug("dynamodb query planned",
		"entityType", d.entityType,
		"scan", params.IsScan(),
		"index", aws.ToString(params.IndexName),
		"residual", residual.String())
	return query.Evaluate(residual, d.records(ctx, params))
}

// records decodes the items of every page into *T.
func (d *DynamodbDataStore[T]) records(ctx context.Context, params *storagemodels.QueryParams) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for item, err := range d.items(ctx, params) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !d.owns(item) {
				continue
			}
			v, err := decodeItem[T](item)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

func (d *DynamodbDataStore[T]) owns(item map[string]types.AttributeValue) bool {
	var entityType string
	if attr, ok := item[EntityTypeAttribute]; ok {
		_ = attributevalue.Unmarshal(attr, &entityType)
	}
	return entityType == d.entityType
}

// buildUpdateExpression transforms a map of field->value into:
//   - an "update expression" (e.g., "SET #f0 = :v0, #f1 = :v1")
//   - a corresponding map of expression attribute names
//   - a corresponding map of expression attribute values
//
// Fields are sorted so the expression is deterministic.
func buildUpdateExpression(updates map[string]any) (string, map[string]string, map[string]types.AttributeValue, error) {
	if len(updates) == 0 {
		return "", nil, nil, errors.NewValidationError("updates", "no updates provided")
	}

	fields := make([]string, 0, len(updates))
	for field := range updates {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	setClauses := make([]string, 0, len(updates))
	exprAttrNames := make(map[string]string, len(updates))
	exprAttrValues := make(map[string]types.AttributeValue, len(updates))

	for i, field := range fields {
		placeholderName := fmt.Sprintf("#f%d", i)
		placeholderValue := fmt.Sprintf(":v%d", i)

		av, err := encodeValue(updates[field])
		if err != nil {
			return "", nil, nil, fmt.Errorf("unhandled update value for field '%s': %w", field, err)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", placeholderName, placeholderValue))
		exprAttrNames[placeholderName] = field
		exprAttrValues[placeholderValue] = av
	}

	return "SET " + strings.Join(setClauses, ", "), exprAttrNames, exprAttrValues, nil
}

// UpdateWithCondition applies updates to the item stored under key when
// condition holds. Condition placeholders may use any names and values not
// of the #fN / :vN form.
func (d *DynamodbDataStore[T]) UpdateWithCondition(ctx context.Context, key string, updates map[string]any, condition string, condValues map[string]types.AttributeValue) error {
	keyMap, err := d.keyFor(key)
	if err != nil {
		return err
	}

	updateExpr, exprAttrNames, exprAttrValues, err := buildUpdateExpression(updates)
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}
	for k, v := range condValues {
		exprAttrValues[k] = v
	}

	input := &sdk.UpdateItemInput{
		TableName:                 &d.tableName,
		Key:                       keyMap,
		UpdateExpression:          &updateExpr,
		ExpressionAttributeNames:  exprAttrNames,
		ExpressionAttributeValues: exprAttrValues,
		ReturnValues:              types.ReturnValueAllNew,
	}
	if condition != "" {
		input.ConditionExpression = &condition
	}

	_, err = d.client.UpdateItem(ctx, input)
	if err != nil {
		// If the condition fails, DynamoDB returns a ConditionalCheckFailedException
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return errors.NewConditionFailedError("update", condition)
		}
		return fmt.Errorf("UpdateWithCondition failed: %w", err)
	}
	return nil
}
