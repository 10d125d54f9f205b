// Package cache stores synthesized speech so re-running a script only pays
// for the chunks that changed. An in-memory LRU (L1) sits in front of a
// zstd-compressed disk cache (L2) that persists across runs.
package cache
