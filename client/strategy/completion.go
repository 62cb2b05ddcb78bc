package strategy

import (
	"errors"
	"go_copy_bench/client/message"
	"go_copy_bench/networking"
	"time"

	"github.com/eapache/queue"
)

// ErrCompletionTimeout means the kernel still holds pages after the final drain
var ErrCompletionTimeout = errors.New("zero-copy completions still outstanding")

// finalDrainStep caps each wait of the final drain so the deadline is honored.
const finalDrainStep = 50 * time.Millisecond

// pendingSend is one zero-copy transmission the kernel has not released.
type pendingSend struct {
	id    uint32
	bytes int
}

// CompletionStats counts zero-copy bookkeeping events for one worker
type CompletionStats struct {
	Sent      uint64 // Zero-copy sends issued
	Completed uint64 // Sends released by the kernel
	Copied    uint64 // Released sends the kernel copied after all
	Drains    uint64 // Error queue polls
	Spurious  uint64 // Notifications for ids never issued or already released
}

// CompletionManager tracks zero-copy sends whose pages are pinned by the
// kernel. Sends are numbered consecutively from zero in issue order, which
// is how the kernel numbers them, and leave the queue only when a completion
// range covers them. Outstanding never goes below zero.
type CompletionManager struct {
	socket  networking.Socket
	msg     *message.Message
	pending *queue.Queue
	ranges  []networking.Completion
	nextID  uint32
	stats   CompletionStats
}

// NewCompletionManager starts tracking sends made on socket from msg's fields
func NewCompletionManager(socket networking.Socket, msg *message.Message) *CompletionManager {
	return &CompletionManager{
		socket:  socket,
		msg:     msg,
		pending: queue.New(),
	}
}

// Track registers one successful zero-copy send and pins the message.
func (c *CompletionManager) Track(bytes int) {
	c.pending.Add(pendingSend{id: c.nextID, bytes: bytes})
	c.nextID++
	c.stats.Sent++
	c.msg.Pin(1)
}

// Outstanding returns number of sends not yet released by the kernel
func (c *CompletionManager) Outstanding() int {
	return c.pending.Length()
}

// PendingBytes returns bytes still referenced by unreleased sends
func (c *CompletionManager) PendingBytes() int {
	total := 0
	for i := 0; i < c.pending.Length(); i++ {
		total += c.pending.Get(i).(pendingSend).bytes
	}
	return total
}

// Stats returns a snapshot of the counters
func (c *CompletionManager) Stats() CompletionStats {
	return c.stats
}

// Drain polls the error queue once without blocking. Best effort: whatever
// is found is acknowledged and the caller resumes sending.
func (c *CompletionManager) Drain() (int, error) {
	return c.poll(0)
}

// DrainAll polls until a round finds no notifications. While sends are
// outstanding each round may wait up to wait for the queue to become readable.
func (c *CompletionManager) DrainAll(wait time.Duration) (int, error) {
	total := 0
	for {
		w := wait
		if c.Outstanding() == 0 {
			w = 0
		}
		acked, found, err := c.pollFound(w)
		total += acked
		if err != nil || !found || c.Outstanding() == 0 {
			return total, err
		}
	}
}

// Finish drains until nothing is outstanding or timeout elapses.
func (c *CompletionManager) Finish(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for c.Outstanding() > 0 {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrCompletionTimeout
		}
		if remaining > finalDrainStep {
			remaining = finalDrainStep
		}
		if _, err := c.poll(remaining); err != nil {
			return err
		}
	}
	return nil
}

func (c *CompletionManager) poll(wait time.Duration) (int, error) {
	acked, _, err := c.pollFound(wait)
	return acked, err
}

func (c *CompletionManager) pollFound(wait time.Duration) (int, bool, error) {
	c.stats.Drains++
	completions, err := c.socket.ReadCompletions(wait)
	acked := 0
	for _, completion := range completions {
		acked += c.Acknowledge(completion)
	}
	return acked, len(completions) > 0, err
}

// Acknowledge applies one completion range and returns number of sends released.
func (c *CompletionManager) Acknowledge(completion networking.Completion) int {
	// Ranges starting at or past the next id refer to sends never issued.
	if int32(completion.Lo-c.nextID) >= 0 || int32(completion.Hi-completion.Lo) < 0 {
		c.stats.Spurious++
		return 0
	}
	c.ranges = append(c.ranges, completion)

	released := 0
	for c.pending.Length() > 0 {
		front := c.pending.Peek().(pendingSend)
		covering := c.covering(front.id)
		if covering < 0 {
			break
		}
		c.pending.Remove()
		released++
		if c.ranges[covering].Copied {
			c.stats.Copied++
		}
	}
	c.pruneRanges()

	c.stats.Completed += uint64(released)
	c.msg.Unpin(int64(released))
	return released
}

func (c *CompletionManager) covering(id uint32) int {
	for i, r := range c.ranges {
		if id-r.Lo <= r.Hi-r.Lo {
			return i
		}
	}
	return -1
}

// pruneRanges forgets ranges that end before the oldest pending send.
func (c *CompletionManager) pruneRanges() {
	oldest := c.nextID
	if c.pending.Length() > 0 {
		oldest = c.pending.Peek().(pendingSend).id
	}
	kept := c.ranges[:0]
	for _, r := range c.ranges {
		if int32(oldest-r.Hi) > 0 {
			continue
		}
		kept = append(kept, r)
	}
	c.ranges = kept
}
