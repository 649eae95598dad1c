// Package worker bounds how many images are processed at once.
package worker

import (
	"sync"
)

// Pool runs submitted tasks on a fixed set of goroutines. Processing an
// image means TIFF decoding plus an exiftool invocation, so the bound
// keeps both memory use and subprocess count in check.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

// NewPool starts size worker goroutines. Sizes below 1 are raised to 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{tasks: make(chan func())}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

// Submit queues a task, blocking while every worker is busy.
func (p *Pool) Submit(task func()) {
	p.tasks <- task
}

// Wait closes the queue and blocks until all queued tasks have finished.
// The pool cannot be reused afterwards.
func (p *Pool) Wait() {
	close(p.tasks)
	p.wg.Wait()
}
