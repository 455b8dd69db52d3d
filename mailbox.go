package textreel

import (
	"image"
	"sync/atomic"
)

// mailbox is a single slot holding the most recent frame. Publishing never
// blocks: a frame that was not taken yet is replaced by the new one.
type mailbox struct {
	slot  chan image.Image
	drops atomic.Uint64
}

func newMailbox() *mailbox {
	return &mailbox{slot: make(chan image.Image, 1)}
}

// publish must only be called by a single producer.
func (m *mailbox) publish(img image.Image) {
	for {
		select {
		case m.slot <- img:
			return
		default:
		}

		select {
		case <-m.slot:
			m.drops.Add(1)
		default:
		}
	}
}

// Drops returns the number of frames that were replaced before being taken.
func (m *mailbox) Drops() uint64 {
	return m.drops.Load()
}
