// Package cache keeps decoded ambience PCM close at hand. Clips live in a
// bounded in-memory LRU and, when a directory is configured, in a
// zstd-compressed disk store that survives restarts.
package cache
