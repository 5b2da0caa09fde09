// Package sse streams word announcements to browsers as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event names written on the "event:" line.
const (
	EventWordAdded    = "word.added"
	EventIndexUpdated = "index.updated"
)

// listenerBuffer is how many frames a slow listener may fall behind before
// frames are dropped for it.
const listenerBuffer = 64

// Broker fans word announcements out to every open event stream. Each frame
// carries an increasing id so clients can tell when they missed some.
type Broker struct {
	refresh   time.Duration
	keepAlive time.Duration

	mu          sync.Mutex
	listeners   map[chan []byte]struct{}
	seq         uint64
	lastRefresh time.Time
	closed      bool
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithKeepAlive makes ServeHTTP write a comment line every d so idle
// connections survive proxies. Zero disables it.
func WithKeepAlive(d time.Duration) BrokerOption {
	return func(b *Broker) { b.keepAlive = d }
}

// NewBroker returns a broker that sends index.updated at most once per
// refresh, no matter how many words arrive.
func NewBroker(refresh time.Duration, opts ...BrokerOption) *Broker {
	if refresh <= 0 {
		refresh = 2 * time.Second
	}
	b := &Broker{
		refresh:   refresh,
		listeners: make(map[chan []byte]struct{}),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Listen registers a new listener. The returned channel is closed by the
// stop function or by Close.
func (b *Broker) Listen() (<-chan []byte, func()) {
	ch := make(chan []byte, listenerBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.listeners[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.drop(ch) })
	}
}

func (b *Broker) drop(ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.listeners[ch]; ok {
		delete(b.listeners, ch)
		close(ch)
	}
}

// Listeners returns the number of open listeners.
func (b *Broker) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// WordAdded announces word to every listener, followed by index.updated when
// the last one went out at least one refresh period ago.
func (b *Broker) WordAdded(word string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.sendLocked(EventWordAdded, map[string]string{"word": word})

	if now := time.Now(); now.Sub(b.lastRefresh) >= b.refresh {
		b.lastRefresh = now
		b.sendLocked(EventIndexUpdated, struct{}{})
	}
}

func (b *Broker) sendLocked(event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	b.seq++
	frame := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", b.seq, event, payload))
	for ch := range b.listeners {
		select {
		case ch <- frame:
		default:
		}
	}
}

// Close ends every stream. Later announcements are ignored.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.listeners {
		close(ch)
	}
	clear(b.listeners)
}

// ServeHTTP streams announcements until the client goes away or the broker
// is closed.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	frames, stop := b.Listen()
	defer stop()

	var ping <-chan time.Time
	if b.keepAlive > 0 {
		ticker := time.NewTicker(b.keepAlive)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping:
			_, _ = w.Write([]byte(": ping\n\n"))
		case frame, ok := <-frames:
			if !ok {
				return
			}
			_, _ = w.Write(frame)
		}
		flusher.Flush()
	}
}
