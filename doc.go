// The [docref] package is a small object-document mapping layer for
// document stores: records are CBOR documents identified by a
// [models.RecordID], and records link to each other through reference
// fields that resolve lazily and cache the resolved target.
//
// # Records and references
//
// A record is any Go struct (or map) serialized with the module's CBOR
// codec. A field of type [Ref] persists as the referenced record's id
// and is resolved on demand with [Ref.Resolve]: the first successful
// resolution issues exactly one store lookup, every later call returns
// the cached target with no store access. Reassigning the reference
// with [Ref.Set] drops the cache. A lookup that finds nothing is not
// cached, so a target created later becomes visible to the next
// resolution.
//
// # Drivers
//
// Storage backends implement [store.Driver]. The module ships three:
// [memstore] keeps documents in process memory, [wsstore] speaks a CBOR
// RPC protocol over WebSocket, and [httpstore] speaks the same protocol
// over HTTP POST. The DB handle works identically against each.
//
// # Queries
//
// [SelectByRef] finds the records pointing at a given id through a
// named field. It always consults the store; reference caches are
// per-field-instance and never affect query results.
//
// [memstore]: github.com/docref/docref.go/pkg/store/memstore
// [wsstore]: github.com/docref/docref.go/pkg/store/wsstore
// [httpstore]: github.com/docref/docref.go/pkg/store/httpstore
// [models.RecordID]: github.com/docref/docref.go/pkg/models
package docref
