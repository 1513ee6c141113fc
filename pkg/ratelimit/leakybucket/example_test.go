package leakybucket_test

import (
	"fmt"

	"github.com/vnykmshr/goshape/pkg/ratelimit/leakybucket"
)

// Example shows the raw admission function with microsecond ticks.
func Example() {
	cost := leakybucket.ItemCost(leakybucket.Microsecond, 10) // 10 items/sec

	var s leakybucket.State
	s, ok := leakybucket.Admit(s, 0, cost, 0)
	fmt.Println("first:", ok, s.Credit)

	_, ok = leakybucket.Admit(s, 50_000, cost, 0)
	fmt.Println("50ms later:", ok)

	s, ok = leakybucket.Admit(s, 100_000, cost, 0)
	fmt.Println("100ms later:", ok, s.LastTick)

	// Output:
	// first: true 100000
	// 50ms later: false
	// 100ms later: true 100000
}

// Example_bucket demonstrates the concurrency-safe Bucket.
func Example_bucket() {
	b, err := leakybucket.New(5, 2) // 5 items/sec, burst of 2
	if err != nil {
		fmt.Println(err)
		return
	}

	allowed := 0
	for i := 0; i < 10; i++ {
		if b.Allow() {
			allowed++
		}
	}
	fmt.Println("allowed:", allowed)

	// Output: allowed: 3
}
