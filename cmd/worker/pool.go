package main

import "sync"

// workerPool bounds how many documents process at once. Submit blocks the
// caller only while every slot is busy, so the NATS delivery goroutine keeps
// feeding tasks up to the pool size instead of serializing them.
type workerPool struct {
	slots chan struct{}
	wg    sync.WaitGroup
}

func newWorkerPool(size int) *workerPool {
	if size <= 0 {
		size = 1
	}
	return &workerPool{slots: make(chan struct{}, size)}
}

func (p *workerPool) Submit(fn func()) {
	p.slots <- struct{}{}
	p.wg.Add(1)
	go func() {
		defer func() {
			<-p.slots
			p.wg.Done()
		}()
		fn()
	}()
}

// Wait blocks until every submitted task has finished.
func (p *workerPool) Wait() {
	p.wg.Wait()
}
