package sharded

// Key is the set of key types a sharded Map accepts. Task ids are sequential,
// so their low bits already spread evenly across shards.
type Key interface {
	~uint64
}

func isPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// shardIndex maps key to a shard. numShards must be a power of 2.
func shardIndex[K Key](key K, numShards int) int {
	return int(uint64(key) & uint64(numShards-1))
}
