package queue_test

import (
	"fmt"

	"github.com/vnykmshr/goshape/pkg/queue"
)

// Example_overwrite shows an overwriting put on a full ring.
func Example_overwrite() {
	q := queue.NewRing[string](2)
	q.TryPut("a", false)
	q.TryPut("b", false)

	fmt.Println(q.TryPut("c", false))
	fmt.Println(q.TryPut("c", true))
	fmt.Println(q.Drain())

	// Output:
	// false
	// true
	// [a c]
}
