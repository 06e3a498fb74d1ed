/*
Package storagemodels defines the data structures shared by entityview's
DynamoDB store and its callers.

QueryParams:
A planned read. Without a key condition it runs as a Scan:

	params := &QueryParams{
	    TableName:              "my-table",
	    KeyConditionExpression: "GSI1PK = :pk",
	    ExpressionAttributeValues: map[string]types.AttributeValue{
	        ":pk": &types.AttributeValueMemberS{Value: "NUMBER#42"},
	    },
	    IndexName: aws.String("GSI1"),
	}

ScanOptions:
Configuration for paged reads:

	opts := []ScanOption{
	    WithPageSize(25),
	    WithMaxRetries(3),
	    WithProgressHandler(progressFunc),
	}
*/
package storagemodels
