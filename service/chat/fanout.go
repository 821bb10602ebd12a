package chat

import "sync"

type fanoutJob struct {
	conns   []*Client
	payload []byte
}

// Fanout spreads a payload over many client send queues without making
// the caller wait on any of them.
type Fanout struct {
	jobs chan fanoutJob
	done chan struct{}
	once sync.Once
}

func NewFanout(workers, queue int) *Fanout {
	f := &Fanout{
		jobs: make(chan fanoutJob, queue),
		done: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case <-f.done:
					return
				case job := <-f.jobs:
					for _, c := range job.conns {
						c.Enqueue(job.payload)
					}
				}
			}
		}()
	}
	return f
}

// Broadcast is a no-op after Close; a late presence announce during
// teardown must not panic.
func (f *Fanout) Broadcast(conns []*Client, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	select {
	case <-f.done:
	case f.jobs <- fanoutJob{conns: conns, payload: payload}:
	}
}

// Close stops the workers. Safe to call more than once.
func (f *Fanout) Close() {
	f.once.Do(func() { close(f.done) })
}
