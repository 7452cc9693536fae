package source

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Pool is a fixed-depth pool of frame buffers owned by a single goroutine. Get
// never blocks: once every buffer is lent out it reports exhaustion, which
// almost always means a frame isn't being released.
type Pool struct {
	new   chan chan []byte
	free  chan []byte
	count chan chan int
	done  chan struct{}
	once  sync.Once

	depth     int
	allocated int
	lent      int
	available [][]byte
}

func NewPool(depth int) *Pool {
	p := &Pool{
		new:   make(chan chan []byte),
		free:  make(chan []byte),
		count: make(chan chan int),
		done:  make(chan struct{}),
		depth: depth,
	}
	go func() {
		for {
			select {
			case <-p.done:
				p.available = nil
				return
			case b := <-p.free:
				p.lent--
				p.available = append(p.available, b[:0])
			case c := <-p.count:
				c <- p.lent
			case r := <-p.new:
				var b []byte
				switch {
				case len(p.available) > 0:
					b, p.available = p.available[0], p.available[1:]
				case p.allocated < p.depth:
					b = make([]byte, 0, 64<<10)
					p.allocated++
				default:
					log.Warnf("Frame pool exhausted (depth %d). Perhaps a frame isn't being released?", p.depth)
					r <- nil
					continue
				}
				p.lent++
				r <- b
			}
		}
	}()
	return p
}

// Get lends out an empty buffer, or nil when the pool is exhausted.
func (p *Pool) Get() []byte {
	r := make(chan []byte)
	select {
	case p.new <- r:
	case <-p.done:
		return nil
	}
	return <-r
}

// Put returns a buffer obtained from Get.
func (p *Pool) Put(b []byte) {
	select {
	case p.free <- b:
	case <-p.done:
	}
}

// Lent returns the number of buffers currently lent out.
func (p *Pool) Lent() int {
	c := make(chan int)
	select {
	case p.count <- c:
	case <-p.done:
		return 0
	}
	return <-c
}

func (p *Pool) Close() {
	p.once.Do(func() { close(p.done) })
}
