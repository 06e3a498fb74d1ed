/*
Package entityview queries and mutates differently typed, separately stored
records through one shared abstraction.

A View[A] wraps the lazily evaluated query of one concrete record type C and
presents its elements as A. Operators appended to a view (Where, OrderBy,
Skip, Take, Select) extend the concrete query's expression and are executed by
the store that owns C, so filters still reach the storage layer. A
ManagedView[A] additionally routes Add, Attach, Create and Remove to the
collection of C, rejecting values of any other concrete type.

Views are bound against a Registry, normally a session.Session:

	s := session.New()
	session.Register[testmodels.TextDoc](s, memory.New[testmodels.TextDoc]())
	session.Register[testmodels.ContentDoc](s, memory.New[testmodels.ContentDoc]())

	texts, err := entityview.Bind[testmodels.Doc, *testmodels.TextDoc](s)
	if err != nil {
		return err
	}
	docs, err := texts.Where(query.Field("Number").Contains("9")).ToSlice(ctx)

Binding fails with errors.ErrBinding when the registry cannot serve the
concrete type. Mutations with a value of the wrong concrete type fail with
errors.ErrTypeMismatch, and an enumerated element that does not implement A
fails with errors.ErrNarrowing. Storage errors pass through unchanged.
*/
package entityview
