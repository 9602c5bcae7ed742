// Package store provides storage and pub/sub functionality for check results.
//
// This package is internal to sitewait and manages the in-memory storage of
// check results. It implements a publish-subscribe pattern for real-time
// updates to connected dashboard clients.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub and
//     bounded per-check history
//   - [CheckResult]: Storage representation of a check run
//
// The store is designed for concurrent access with proper synchronization.
// Subscribers receive updates via channels with non-blocking sends (slow
// subscribers will miss updates rather than block the system).
package store
