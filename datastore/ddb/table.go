/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableClient is the subset of the DynamoDB API EnsureTable uses.
type TableClient interface {
	CreateTable(ctx context.Context, params *sdk.CreateTableInput, optFns ...func(*sdk.Options)) (*sdk.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *sdk.DescribeTableInput, optFns ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error)
}

// EnsureTable creates the single table layout the store expects, PK/SK plus
// the GSI1 index projecting all attributes, and waits until it is active.
// An existing table is left untouched.
func EnsureTable(ctx context.Context, client TableClient, tableName string, wait time.Duration) error {
	gsi, _ := GetGSIConfig("GSI1")

	_, err := client.CreateTable(ctx, &sdk.CreateTableInput{
		TableName:   aws.String(tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("SK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(gsi.PartitionKeyName), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(gsi.SortKeyName), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("PK"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("SK"), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{{
			IndexName: aws.String(gsi.IndexName),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(gsi.PartitionKeyName), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String(gsi.SortKeyName), KeyType: types.KeyTypeRange},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}},
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if stderrors.As(err, &inUse) {
			return nil
		}
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	waiter := sdk.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &sdk.DescribeTableInput{TableName: aws.String(tableName)}, wait); err != nil {
		return fmt.Errorf("table %s did not become active: %w", tableName, err)
	}
	return nil
}
