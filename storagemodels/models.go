/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// QueryParams is a planned DynamoDB read. An empty KeyConditionExpression
// means the read is a Scan; otherwise it is a Query.
type QueryParams struct {
	// TableName is the DynamoDB table name.
	TableName string
	// KeyConditionExpression is the primary condition for the query.
	KeyConditionExpression string
	// FilterExpression is an optional filter expression.
	FilterExpression *string
	// ExpressionAttributeNames maps #placeholders to attribute names.
	ExpressionAttributeNames map[string]string
	// ExpressionAttributeValues contains the values for expression placeholders.
	ExpressionAttributeValues map[string]types.AttributeValue
	// IndexName is optional if you wish to query a secondary index.
	IndexName *string
	// ExclusiveStartKey for pagination
	ExclusiveStartKey map[string]types.AttributeValue
}

// IsScan reports whether p reads the whole table.
func (p *QueryParams) IsScan() bool {
	return p.KeyConditionExpression == ""
}
