// Package events provides in-process pub/sub between the watcher, the run
// loop, and the ops endpoints. Publishing never blocks; a slow subscriber
// misses events rather than stalling the producer.
package events

import (
    "sync"
    "time"
)

// SourceChanged fires when a watched input file is written.
type SourceChanged struct {
    Path string
}

// RefreshDue fires when the periodic re-fetch interval elapses.
type RefreshDue struct{}

// RunCompleted fires after every analysis run, success or failure.
type RunCompleted struct {
    RunID      string
    Err        string
    FinishedAt time.Time
}

// Bus is the process-wide event fan-out.
type Bus struct {
    mu   sync.RWMutex
    subs []chan any
}

func NewBus() *Bus { return &Bus{} }

func (b *Bus) Subscribe() <-chan any {
    ch := make(chan any, 16)
    b.mu.Lock()
    defer b.mu.Unlock()
    b.subs = append(b.subs, ch)
    return ch
}

func (b *Bus) Publish(ev any) {
    b.mu.RLock()
    defer b.mu.RUnlock()
    for _, ch := range b.subs {
        select {
        case ch <- ev:
        default:
        }
    }
}
