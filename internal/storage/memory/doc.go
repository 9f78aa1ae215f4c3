// Package memory provides the in-memory keyspace for respkv.
//
// Keys map to byte string values with an optional absolute expiry.
// Expired keys are removed lazily on access and actively by a background
// sweeper that samples keys carrying a TTL, in the manner of Redis.
//
// Thread Safety:
//
// All operations are safe for concurrent use. One mutex guards the map,
// since a read may delete the expired key it finds.
package memory
