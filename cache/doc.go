// Package cache provides the byte stores used to cache service reads: an
// in-process expirable LRU and redis. Values are encoded with msgpack and
// keyed by <app-slug>:<table>:<id>.
package cache
