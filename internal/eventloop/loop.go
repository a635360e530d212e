// Package eventloop provides the default EventLoop implementation: a
// single-goroutine timer select loop (AddFD/DeleteFD do nothing, so only
// timer callbacks are ever invoked). Every timer callback is invoked
// synchronously from that one goroutine, so internal/dhcpclient
// never has to guard its state with a mutex. Grounded on the teacher's
// internal/dhcp/server.go goroutine+channel dispatch shape, adapted from a
// per-packet worker pool to a single cooperative loop.
package eventloop

import (
	"container/heap"
	"context"
	"log/slog"
	"reflect"
	"time"

	"github.com/mcingel/dhcpcd/internal/dhcpclient"
)

// timerEntry is one armed timer, ordered by its fire time in the heap.
type timerEntry struct {
	fireAt time.Time
	iface  string
	cb     dhcpclient.TimerCallback
	index  int
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].fireAt.Before(h[j].fireAt) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *timerHeap) Push(x interface{}) { e := x.(*timerEntry); e.index = len(*h); *h = append(*h, e) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

type fdWatch struct {
	fd int
	cb func()
}

// cmd is a request sent into the loop goroutine from AddTimer/DeleteTimer,
// keeping every mutation of the heap on the loop's own goroutine. AddFD and
// DeleteFD send no cmd, so the fd fields are never set.
type cmd struct {
	add       *timerEntry
	delIface  string
	delCB     dhcpclient.TimerCallback
	hasDelete bool
	addFD     *fdWatch
	delFD     int
	hasDelFD  bool
}

// Loop is the default dhcpclient.EventLoop: a min-heap of armed timers
// driven from one goroutine. Registered fds are not polled.
type Loop struct {
	logger *slog.Logger
	cmds   chan cmd
	fired  chan *timerEntry
}

// NewLoop constructs a Loop. Call Run to start it; Run blocks until ctx is
// cancelled.
func NewLoop(logger *slog.Logger) *Loop {
	return &Loop{
		logger: logger,
		cmds:   make(chan cmd, 64),
	}
}

func (l *Loop) AddTimer(d time.Duration, iface string, cb dhcpclient.TimerCallback) {
	l.cmds <- cmd{add: &timerEntry{fireAt: time.Now().Add(d), iface: iface, cb: cb}}
}

func (l *Loop) DeleteTimer(iface string, cb dhcpclient.TimerCallback) {
	l.cmds <- cmd{delIface: iface, delCB: cb, hasDelete: true}
}

// AddFD and DeleteFD are accepted for interface compliance and do nothing;
// cmd/dhcpcd reads the raw socket on its own goroutine and hands each
// decoded message to the engine through a zero-delay AddTimer, so this
// default loop does not multiplex fds itself.
func (l *Loop) AddFD(fd int, cb func()) {}
func (l *Loop) DeleteFD(fd int)         {}

// Run drives the timer heap until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	h := &timerHeap{}
	heap.Init(h)

	var timer *time.Timer
	resetTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		if h.Len() == 0 {
			timer = time.NewTimer(time.Hour)
			return
		}
		d := time.Until((*h)[0].fireAt)
		if d < 0 {
			d = 0
		}
		timer = time.NewTimer(d)
	}
	resetTimer()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case c := <-l.cmds:
			switch {
			case c.add != nil:
				heap.Push(h, c.add)
			case c.hasDelete:
				filtered := (*h)[:0]
				for _, e := range *h {
					if e.iface == c.delIface && (c.delCB == nil || sameCallback(e.cb, c.delCB)) {
						continue
					}
					filtered = append(filtered, e)
				}
				*h = filtered
				heap.Init(h)
			}
			resetTimer()

		case <-timer.C:
			now := time.Now()
			for h.Len() > 0 && !(*h)[0].fireAt.After(now) {
				e := heap.Pop(h).(*timerEntry)
				e.cb(e.iface)
			}
			resetTimer()
		}
	}
}

// sameCallback compares two TimerCallback values by their underlying code
// pointer via reflect, since func values aren't comparable with ==. The
// engine only ever cancels with a nil callback (cancel-all-for-interface,
// handled in Run before this is called); this path exists for
// collaborators that do pass a specific callback to cancel.
func sameCallback(a, b dhcpclient.TimerCallback) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
