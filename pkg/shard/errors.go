package shard

import "errors"

var (
	// ErrShardClosed is returned when a task is submitted to a closed shard.
	ErrShardClosed = errors.New("shard closed")
	// ErrNotOnShard is returned when a context does not belong to a shard task.
	ErrNotOnShard = errors.New("context is not running on a shard")
	// ErrNoSuchShard is returned for a shard id outside the group.
	ErrNoSuchShard = errors.New("no such shard")
)
