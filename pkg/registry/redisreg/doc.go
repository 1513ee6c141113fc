/*
Package redisreg is a registry.Registry that keeps per-item bucket records in
Redis, so drain loops in different processes can shape the same items.

Each item is a hash at <prefix>:item:<id> with the fields rate, credit and
last_tick. The per-item lock is a lease at <prefix>:lock:<id> taken with
SET NX PX and a random owner token, retried with exponential backoff for at
most LockWait, and released by a compare-and-delete script.

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	reg, err := redisreg.New(redisreg.Config{Client: client, KeyPrefix: "shaper"})
	if err != nil {
		return err
	}
	_ = reg.Put(ctx, "tenant-a", 10, leakybucket.State{})

Records are created and removed with Put and Remove by the registry owner;
drain loops only read and update them.
*/
package redisreg
