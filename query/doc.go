/*
Package query defines deferred, composable queries over stored records.

A query is an Expression tree rooted at a Source and built up with Filter,
Order, Slice and Project nodes. A Provider turns expressions into storage
operations; a Sequence pairs an expression with the provider that runs it:

	expr := query.Source{Name: "TextDoc", Type: reflect.TypeFor[*TextDoc]()}
	expr = query.Where(expr, query.Field("Number").Contains("9"))
	expr = query.OrderBy(expr, query.Desc("Date"))

	for v, err := range provider.Execute(ctx, expr) {
	    ...
	}

Members are addressed by name and resolved on the element type: exported
struct fields by Go name or json tag, then zero-argument getter methods.

Evaluate runs an expression in process. Stores that cannot push a node down
to their engine evaluate it locally with the same semantics.
*/
package query
