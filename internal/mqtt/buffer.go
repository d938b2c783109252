package mqtt

import "log"

// pendingMsg is a serialized message held while the broker is unreachable.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox keeps the most recent messages published while disconnected,
// dropping the oldest once full.
// Not safe for concurrent use; RealPublisher guards it with its mutex.
type outbox struct {
	msgs    []pendingMsg
	next    int // slot for the next push
	count   int
	dropped int // total dropped since startup
	warned  bool
}

func newOutbox(capacity int) *outbox {
	return &outbox{msgs: make([]pendingMsg, capacity)}
}

func (o *outbox) push(msg pendingMsg) {
	capacity := len(o.msgs)
	if o.count == capacity {
		if !o.warned {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", capacity)
			o.warned = true
		}
		o.dropped++
	} else {
		o.count++
	}
	o.msgs[o.next] = msg
	o.next = (o.next + 1) % capacity
}

// drain returns the held messages oldest first and empties the outbox.
func (o *outbox) drain() []pendingMsg {
	if o.count == 0 {
		return nil
	}

	capacity := len(o.msgs)
	first := (o.next - o.count + capacity) % capacity
	out := make([]pendingMsg, 0, o.count)
	for i := 0; i < o.count; i++ {
		out = append(out, o.msgs[(first+i)%capacity])
	}

	o.count = 0
	o.next = 0
	o.warned = false
	return out
}

func (o *outbox) len() int {
	return o.count
}
