package mqtt

import "log"

// message is a serialized publish held for replay after reconnection.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox keeps the most recent messages published while the broker was
// unreachable. When full the oldest message is overwritten.
// Not safe for concurrent use; RealPublisher holds its mutex around it.
type outbox struct {
	msgs    []message
	next    int
	count   int
	dropped int
	warned  bool
}

func newOutbox(capacity int) *outbox {
	if capacity < 1 {
		capacity = 1
	}
	return &outbox{msgs: make([]message, capacity)}
}

func (o *outbox) add(m message) {
	if o.count == len(o.msgs) {
		o.dropped++
		if !o.warned {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", len(o.msgs))
			o.warned = true
		}
	} else {
		o.count++
	}
	o.msgs[o.next] = m
	o.next = (o.next + 1) % len(o.msgs)
}

// takeAll empties the outbox and returns its messages oldest first.
func (o *outbox) takeAll() []message {
	if o.count == 0 {
		return nil
	}
	out := make([]message, 0, o.count)
	first := (o.next - o.count + len(o.msgs)) % len(o.msgs)
	for i := 0; i < o.count; i++ {
		out = append(out, o.msgs[(first+i)%len(o.msgs)])
	}
	o.count = 0
	o.next = 0
	o.warned = false
	return out
}

func (o *outbox) len() int {
	return o.count
}
