// Package cache provides a TTL- and size-bounded result cache and a generic
// function memoizer keyed by canonicalized arguments.
//
// Store is the primitive: a bounded map with per-entry TTL, lazy expiry on
// read, insertion-order eviction when full, and single-flight loading so
// concurrent misses for the same key invoke the loader once. Memoizer wraps
// a function with a Store, deriving keys from the call arguments.
package cache
