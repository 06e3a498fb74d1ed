/*
Package registry manages type registration and index mapping for entityview.

The registry system enables:
  - Polymorphic entity storage in a single DynamoDB table
  - Stable entity type names for table names and EntityType attributes
  - Flexible key patterns through index maps

Type Registry:
Maps entity type names to Go types:

	registry.RegisterType[TextDoc]("TextDoc")
	registry.NameOf(reflect.TypeFor[*TextDoc]()) // "TextDoc"

Index Map Registry:
Associates Go types with DynamoDB key patterns:

	indexMap := map[string]string{
	    "PK": "TEXTDOC#{ID}",
	    "SK": "TEXTDOC#{ID}",
	    "GSI1PK": "NUMBER#{Number}",
	    "GSI1SK": "TEXTDOC",
	}
	registry.RegisterIndexMap[TextDoc](indexMap)

The registry is thread-safe and should be populated during initialization,
typically in init() functions.
*/
package registry
