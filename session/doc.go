/*
Package session implements the unit of work entityview views bind to.

A Session holds one datastore.DataStore[T] per concrete type and tracks the
entities that pass through it:

	s := session.New()
	session.Register[testmodels.TextDoc](s, memory.New[testmodels.TextDoc]())

	docs, _ := entityview.BindManaged[testmodels.Doc, *testmodels.TextDoc](s)
	docs.Add(&testmodels.TextDoc{ID: uuid.New(), Number: "765490"})

	n, err := s.SaveChanges(ctx)

Entities move between the Detached, Unchanged, Added, Modified and Deleted
states. Modifications are found by comparing JSON snapshots. Each key maps to
at most one tracked instance, and queries return that instance rather than a
fresh copy.

In FlushAuto mode, the default, pending changes are saved before every query
executes, so a query always sees what was added through the session.
*/
package session
