package shaper

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultPollInterval is the idle wait between polls of an empty input queue.
const DefaultPollInterval = 10 * time.Millisecond

// PollPolicy decides how long a drain loop sleeps after finding its input
// queue empty. A fresh BackOff is taken per Run and reset after every
// dispatch.
type PollPolicy interface {
	NewBackOff() backoff.BackOff
}

// The PollPolicyFunc type is an adapter to allow the use of ordinary functions as PollPolicy.
type PollPolicyFunc func() backoff.BackOff

// NewBackOff implements PollPolicy.
func (f PollPolicyFunc) NewBackOff() backoff.BackOff {
	return f()
}

// ConstantPoll sleeps the same interval after every empty poll.
func ConstantPoll(interval time.Duration) PollPolicy {
	return PollPolicyFunc(func() backoff.BackOff {
		return backoff.NewConstantBackOff(interval)
	})
}

// NoWait never sleeps; an idle loop only yields the processor between polls.
func NoWait() PollPolicy {
	return PollPolicyFunc(func() backoff.BackOff {
		return &backoff.ZeroBackOff{}
	})
}

// ExponentialPoll starts at initial and grows the idle wait up to max while
// the input stays empty. Low-traffic deployments use it to poll less often.
func ExponentialPoll(initial, max time.Duration) PollPolicy {
	return PollPolicyFunc(func() backoff.BackOff {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = initial
		eb.MaxInterval = max
		eb.MaxElapsedTime = 0
		eb.Reset()
		return eb
	})
}
