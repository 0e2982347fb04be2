package worker

import (
	"sync"

	"github.com/korjavin/docquizbot/logger"
)

// Lanes runs functions one at a time per key, in submission order, while
// different keys proceed concurrently. A lane's goroutine exits once its
// queue drains.
type Lanes struct {
	mu    sync.Mutex
	lanes map[int64]*lane
	log   *logger.Logger
}

type lane struct {
	queue []func()
}

func NewLanes(baseLog *logger.Logger) *Lanes {
	return &Lanes{
		lanes: make(map[int64]*lane),
		log:   baseLog.With("component", "UserLanes"),
	}
}

// Do queues fn on the lane of key.
func (l *Lanes) Do(key int64, fn func()) {
	l.mu.Lock()
	ln, running := l.lanes[key]
	if !running {
		ln = &lane{}
		l.lanes[key] = ln
	}
	ln.queue = append(ln.queue, fn)
	l.mu.Unlock()

	if !running {
		go l.drain(key, ln)
	}
}

// Active returns the number of lanes with queued or running work.
func (l *Lanes) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lanes)
}

func (l *Lanes) drain(key int64, ln *lane) {
	for {
		l.mu.Lock()
		if len(ln.queue) == 0 {
			delete(l.lanes, key)
			l.mu.Unlock()
			return
		}
		fn := ln.queue[0]
		ln.queue = ln.queue[1:]
		l.mu.Unlock()

		l.run(key, fn)
	}
}

func (l *Lanes) run(key int64, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("Handler panic", "lane", key, "panic", r)
		}
	}()
	fn()
}
