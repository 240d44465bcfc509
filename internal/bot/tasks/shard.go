package tasks

import "time"

// ShardIndex maps wall-clock time to the shard this tick owns:
// floor(currentMinute / tickMinutes) mod shardCount. With the default 10
// shards and 6-minute ticks the whole active-group list is covered once
// per hour; any cadence works as long as shardCount * tickMinutes spans
// the hour.
func ShardIndex(now time.Time, tickMinutes, shardCount int) int {
	if tickMinutes <= 0 {
		tickMinutes = 1
	}
	if shardCount <= 0 {
		shardCount = 1
	}
	return (now.Minute() / tickMinutes) % shardCount
}

// InShard reports whether the group at the given zero-based snapshot
// position belongs to the shard.
func InShard(position, shardCount, shard int) bool {
	if shardCount <= 0 {
		return true
	}
	return position%shardCount == shard
}
