package kthread

import (
	"strconv"

	"github.com/joeycumines/go-kthread/internal/goroutineid"
)

// ThreadStatus is the scheduling state of a KThread.
type ThreadStatus uint8

const (
	// StatusNew indicates the thread has been created but not yet readied.
	StatusNew ThreadStatus = iota
	// StatusReady indicates the thread is on the ready queue.
	StatusReady
	// StatusRunning indicates the thread holds the CPU.
	StatusRunning
	// StatusBlocked indicates the thread is suspended, waiting to be readied.
	StatusBlocked
	// StatusFinished indicates the thread's target has returned.
	StatusFinished
)

// String returns a human-readable representation of the status.
func (s ThreadStatus) String() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusReady:
		return "Ready"
	case StatusRunning:
		return "Running"
	case StatusBlocked:
		return "Blocked"
	case StatusFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// KThread is a logical thread of a Kernel. It is hosted by a dedicated
// goroutine, which only executes while the thread holds the CPU.
type KThread struct {
	k      *Kernel
	target func()
	name   string
	id     uint64

	// resume carries the CPU to this thread. Buffered, so the sender never
	// waits on the receiver.
	resume chan struct{}

	joinQueue ThreadQueue
	status    ThreadStatus
	joined    bool
}

func (k *Kernel) newThread(name string, target func()) *KThread {
	k.nextThreadID++
	return &KThread{
		k:      k,
		target: target,
		name:   name,
		id:     k.nextThreadID,
		resume: make(chan struct{}, 1),
	}
}

// Name returns the name given to Fork.
func (t *KThread) Name() string {
	return t.name
}

// ID returns the thread's identifier, unique within its kernel. The root
// thread is 1.
func (t *KThread) ID() uint64 {
	return t.id
}

// String returns the thread's name and ID, e.g. "ping (#2)".
func (t *KThread) String() string {
	return t.name + " (#" + strconv.FormatUint(t.id, 10) + ")"
}

// Status returns the thread's scheduling state. Only meaningful when called
// from a thread of the same kernel, or after Run has returned.
func (t *KThread) Status() ThreadStatus {
	return t.status
}

// Join blocks the calling thread until t has finished. It returns
// immediately if t has already finished. A thread may be joined at most
// once, and never by itself.
func (t *KThread) Join() {
	k := t.k
	cur := k.Current()
	if cur == t {
		panic(contractViolation("KThread.Join", "thread cannot join itself"))
	}

	prev := k.interrupt.Disable()
	if t.joined {
		panic(contractViolation("KThread.Join", "thread "+t.String()+" was already joined"))
	}
	t.joined = true
	if t.status != StatusFinished {
		t.joinQueue.WaitForAccess(cur)
		k.block(cur)
	}
	k.interrupt.Restore(prev)
}

// run is the body of the goroutine hosting t.
func (t *KThread) run(root bool) {
	k := t.k
	gid := goroutineid.Get()
	k.register(gid, t)
	defer k.unregister(gid)
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(haltSignal); ok {
				return
			}
			k.fault(t, r)
		}
	}()

	if !root {
		// wait to be dispatched for the first time
		t.park()
	}

	k.interrupt.Enable()
	t.target()
	k.finish(t)
}

// park suspends the hosting goroutine until the CPU is handed back.
func (t *KThread) park() {
	select {
	case <-t.resume:
	case <-t.k.halted:
		panic(haltSignal{})
	}
}
