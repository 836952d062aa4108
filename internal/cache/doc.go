// Package cache keeps synthesized narration clips so repeated units are not
// synthesized again. It has an in-memory LRU tier (L1) and an optional disk
// tier (L2); both store zstd-compressed clips.
package cache
