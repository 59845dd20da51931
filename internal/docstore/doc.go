// Package docstore is the document store client the rest of fleetd talks to.
//
// A Store holds JSON documents grouped into named collections and keyed by
// their "id" field. Besides plain get/put/delete it runs aggregation
// pipelines composed from Match, Lookup, Unwind, Project, Skip, Limit and
// Count stages. Backends that have no native pipeline engine run them in
// process through Evaluate.
//
// Writes are atomic per document only. Nothing here spans documents or
// collections.
package docstore
