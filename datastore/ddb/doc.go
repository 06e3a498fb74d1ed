/*
Package ddb provides a DynamoDB implementation of the DataStore interface.

The DynamodbDataStore supports:
  - Single-table design patterns
  - Macro-based key expansion (e.g., "TEXTDOC#{ID}")
  - Sparse GSI1 keys and key-condition planning
  - Paged reads with retry and progress reporting
  - Conditional updates for optimistic locking
  - Automatic EntityType injection for polymorphic storage

Macro Expansion:
Keys are expanded from the index map registered for the record type:

	registry.RegisterIndexMap[TextDoc](map[string]string{
	    "PK":     "TEXTDOC#{ID}",
	    "SK":     "TEXTDOC#{ID}",
	    "GSI1PK": "NUMBER#{Number}",
	    "GSI1SK": "TEXTDOC#{ID}",
	})

Queries:
Query and Rows take a query.Expression. Filter conjuncts ahead of any
Skip/Take are translated into a FilterExpression; an equality on the PK or
GSI1PK macro member turns the Scan into a Query. Whatever DynamoDB cannot
express is evaluated in process as pages arrive:

	seq := store.Query(ctx, query.Take(
	    query.OrderBy(query.Where(src, query.Field("Number").Eq("42")), query.Desc("Date")),
	    10,
	))
*/
package ddb
