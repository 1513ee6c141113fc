/*
Package registry tracks per-item leaky-bucket accounting for the per-item
drain mode.

A Registry maps a request id to a Record. The record carries the item's
configured rate, its current credit and last admission tick, and an
optional Locker that serializes the read-decide-write span when several
drain loops share one registry.

Memory is the in-process implementation. The redisreg subpackage keeps the
same records in Redis so drain loops in different processes can share them.

	reg, _ := registry.NewMemory(map[string]registry.Entry{
		"tenant-a": {Rate: 10, Lock: registry.NewMutexLocker()},
		"tenant-b": {Rate: 2, Lock: registry.NewMutexLocker()},
	})
*/
package registry
