package kthread

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-kthread/internal/goroutineid"
	"github.com/joeycumines/logiface"
)

// kernelIDCounter provides unique kernel IDs, for logging.
var kernelIDCounter atomic.Uint64

// Kernel is a simulated uniprocessor: a clock, an interrupt controller, a
// periodic timer, a FIFO ready queue, and the threads they schedule.
//
// Exactly one thread holds the CPU at any moment, and the kernel's state is
// only ever touched by that thread. Threads give up the CPU voluntarily, by
// blocking, yielding, or finishing, or when the timer interrupt fires as
// interrupts are re-enabled.
//
// Kernel operations must be called from one of the kernel's own threads.
// Calling them from any other goroutine panics with a [*ContractError].
type Kernel struct {
	logger     *logiface.Logger[logiface.Event]
	logLimiter *catrate.Limiter
	interrupt  *Interrupt
	alarm      *Alarm

	// current holds the CPU, and root is the thread started by Run.
	current *KThread
	root    *KThread

	// registry maps the ID of each hosting goroutine to its thread.
	registry map[uint64]*KThread

	// halted is closed once, when the kernel halts, releasing every parked
	// thread. result is written before the close.
	halted chan struct{}
	result error

	timer      timer
	readyQueue ThreadQueue
	stats      kernelStats
	state      fastState
	clock      atomic.Int64

	registryMu sync.RWMutex
	haltOnce   sync.Once

	id           uint64
	nextThreadID uint64
	kernelTick   int64
}

// New creates a kernel, which does nothing until Run is called.
func New(opts ...Option) (*Kernel, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	k := &Kernel{
		logger:     cfg.logger,
		logLimiter: cfg.logLimiter,
		registry:   make(map[uint64]*KThread),
		halted:     make(chan struct{}),
		id:         kernelIDCounter.Add(1),
		kernelTick: cfg.kernelTick,
	}
	k.interrupt = &Interrupt{k: k}
	k.timer.period = cfg.timerTicks
	if cfg.randomTimer {
		k.timer.rng = rand.New(rand.NewPCG(cfg.randomSeed, cfg.randomSeed^0x9e3779b97f4a7c15))
	}
	k.alarm = newAlarm(k)
	k.timer.handler = k.alarm.timerInterrupt
	k.timer.schedule(0)

	return k, nil
}

// Run starts the kernel, running main as the root thread, and blocks until
// the kernel halts.
//
// It returns nil once main returns; any other threads are discarded at that
// point, whatever their state. Otherwise it returns a [*ContractError] or
// [*PanicError] raised by any thread, an error wrapping [ErrDeadlock] if no
// thread can ever run again, or ctx.Err() if ctx is done first. Threads that
// are running when the kernel halts unwind at their next kernel operation,
// which may be after Run has returned.
//
// A kernel may only be run once.
func (k *Kernel) Run(ctx context.Context, main func()) error {
	if main == nil {
		return ErrNilTarget
	}
	if !k.state.TryTransition(StateAwake, StateRunning) {
		if k.state.Load() == StateHalted {
			return ErrKernelHalted
		}
		return ErrKernelAlreadyRunning
	}
	if err := ctx.Err(); err != nil {
		k.halt(err)
		return err
	}

	root := k.newThread("main", main)
	root.status = StatusRunning
	k.root = root
	k.current = root

	k.logger.Info().
		Uint64("kernel", k.id).
		Int64("timer_ticks", k.timer.period).
		Bool("random_timer", k.timer.rng != nil).
		Log("kernel running")

	go root.run(true)

	select {
	case <-k.halted:
	case <-ctx.Done():
		k.halt(ctx.Err())
	}

	stats := k.Stats()
	b := k.logger.Info().
		Uint64("kernel", k.id).
		Int64("total_ticks", stats.TotalTicks).
		Int64("idle_ticks", stats.IdleTicks).
		Uint64("context_switches", stats.ContextSwitches).
		Uint64("timer_interrupts", stats.TimerInterrupts)
	if k.result != nil {
		b = b.Err(k.result)
	}
	b.Log("kernel halted")

	return k.result
}

// State returns the kernel's lifecycle state.
func (k *Kernel) State() KernelState {
	return k.state.Load()
}

// Time returns the current simulated time, in ticks. It is safe to call
// from any goroutine.
func (k *Kernel) Time() int64 {
	return k.clock.Load()
}

// Interrupt returns the kernel's interrupt controller.
func (k *Kernel) Interrupt() *Interrupt {
	return k.interrupt
}

// Alarm returns the kernel's alarm, which is driven by its timer.
func (k *Kernel) Alarm() *Alarm {
	return k.alarm
}

// Logger returns the logger configured with [WithLogger], which may be nil.
func (k *Kernel) Logger() *logiface.Logger[logiface.Event] {
	return k.logger
}

// Current returns the thread hosted by the calling goroutine.
func (k *Kernel) Current() *KThread {
	t := k.lookup(goroutineid.Get())
	select {
	case <-k.halted:
		if t != nil {
			panic(haltSignal{})
		}
		panic(contractViolation("Current", "kernel has halted"))
	default:
	}
	if t == nil {
		panic(contractViolation("Current", "caller is not a thread of this kernel"))
	}
	return t
}

// Fork creates a thread running fn, and puts it on the ready queue. The
// caller keeps the CPU.
func (k *Kernel) Fork(name string, fn func()) *KThread {
	k.Current()
	if fn == nil {
		panic(contractViolation("Fork", "nil thread target"))
	}

	t := k.newThread(name, fn)
	k.stats.threadsForked.Add(1)
	k.debug(logCategoryThread).
		Str("thread", t.String()).
		Log("thread forked")

	go t.run(false)

	prev := k.interrupt.Disable()
	k.ready(t)
	k.interrupt.Restore(prev)
	return t
}

// Yield gives up the CPU if another thread is ready to run, moving the
// caller to the back of the ready queue.
//
// Called from an interrupt handler, the yield is deferred until the handler
// returns.
func (k *Kernel) Yield() {
	t := k.Current()
	if k.interrupt.inHandler {
		k.interrupt.yieldOnReturn = true
		return
	}

	prev := k.interrupt.Disable()
	k.yield(t)
	k.interrupt.Restore(prev)
}

func (k *Kernel) yield(t *KThread) {
	t.status = StatusReady
	k.readyQueue.WaitForAccess(t)
	k.runNext()
}

// Block suspends the calling thread until another thread (or an interrupt
// handler) passes it to Ready. Interrupts must be disabled, and the caller
// must have arranged to be readied before calling Block.
func (k *Kernel) Block() {
	t := k.Current()
	if k.interrupt.enabled {
		panic(contractViolation("Block", "interrupts must be disabled"))
	}
	k.block(t)
}

// Ready moves a blocked or new thread onto the ready queue. It does not run
// the thread. Readying a thread that is already ready has no effect.
// Interrupts must be disabled.
func (k *Kernel) Ready(t *KThread) {
	k.Current()
	if k.interrupt.enabled {
		panic(contractViolation("Ready", "interrupts must be disabled"))
	}
	if t == nil || t.k != k {
		panic(contractViolation("Ready", "thread does not belong to this kernel"))
	}
	k.ready(t)
}

func (k *Kernel) ready(t *KThread) {
	switch t.status {
	case StatusReady:
		return
	case StatusRunning:
		panic(contractViolation("Ready", "thread "+t.String()+" is running"))
	case StatusFinished:
		panic(contractViolation("Ready", "thread "+t.String()+" has finished"))
	}
	t.status = StatusReady
	k.readyQueue.WaitForAccess(t)
}

func (k *Kernel) block(t *KThread) {
	t.status = StatusBlocked
	k.runNext()
}

// runNext dispatches the next ready thread, idling until one exists. The
// caller must hold the CPU, with interrupts disabled, and must already have
// queued itself somewhere if it expects to run again.
func (k *Kernel) runNext() {
	next := k.readyQueue.NextThread()
	for next == nil {
		k.idle()
		next = k.readyQueue.NextThread()
	}
	k.switchTo(next)
}

// switchTo hands the CPU to next. Unless the caller has finished, it
// returns once the caller has been dispatched again.
func (k *Kernel) switchTo(next *KThread) {
	prev := k.current
	next.status = StatusRunning
	if next == prev {
		return
	}

	k.stats.contextSwitches.Add(1)
	k.debug(logCategorySwitch).
		Str("from", prev.String()).
		Str("to", next.String()).
		Log("context switch")

	finished := prev.status == StatusFinished
	k.current = next
	next.resume <- struct{}{}
	if finished {
		return
	}
	prev.park()
}

// idle advances the clock to the next timer interrupt and delivers it. It
// halts the kernel if nothing could ever become ready.
func (k *Kernel) idle() {
	k.checkHalted()

	if k.alarm.Pending() == 0 {
		err := fmt.Errorf("%w: no runnable threads and no pending alarms, %d live thread(s)", ErrDeadlock, k.liveThreads())
		k.logger.Warning().
			Uint64("kernel", k.id).
			Int64("tick", k.clock.Load()).
			Err(err).
			Log("kernel deadlocked")
		k.halt(err)
		panic(haltSignal{})
	}

	if d := k.timer.next - k.clock.Load(); d > 0 {
		k.clock.Add(d)
		k.stats.idleTicks.Add(d)
		k.debug(logCategoryIdle).
			Int64("idle_ticks", d).
			Log("cpu idle")
	}

	k.interrupt.deliver()
	// no thread holds the CPU to yield
	k.interrupt.yieldOnReturn = false
}

// finish runs on the finishing thread, and never returns to its target.
func (k *Kernel) finish(t *KThread) {
	k.interrupt.Disable()
	for w := t.joinQueue.NextThread(); w != nil; w = t.joinQueue.NextThread() {
		k.ready(w)
	}
	t.status = StatusFinished
	k.debug(logCategoryThread).
		Str("thread", t.String()).
		Log("thread finished")

	if t == k.root {
		k.halt(nil)
		return
	}
	k.runNext()
}

// fault halts the kernel due to a panic in t.
func (k *Kernel) fault(t *KThread, r any) {
	var err error
	if v, ok := r.(*ContractError); ok {
		err = v
	} else {
		err = &PanicError{Value: r, Thread: t.String()}
	}
	k.logger.Crit().
		Uint64("kernel", k.id).
		Str("thread", t.String()).
		Int64("tick", k.clock.Load()).
		Err(err).
		Log("thread faulted, halting kernel")
	k.halt(err)
}

func (k *Kernel) halt(err error) {
	k.haltOnce.Do(func() {
		k.result = err
		k.state.Store(StateHalted)
		close(k.halted)
	})
}

// checkHalted unwinds the calling thread if the kernel has halted.
func (k *Kernel) checkHalted() {
	select {
	case <-k.halted:
		panic(haltSignal{})
	default:
	}
}

func (k *Kernel) register(gid uint64, t *KThread) {
	k.registryMu.Lock()
	k.registry[gid] = t
	k.registryMu.Unlock()
}

func (k *Kernel) unregister(gid uint64) {
	k.registryMu.Lock()
	delete(k.registry, gid)
	k.registryMu.Unlock()
}

func (k *Kernel) lookup(gid uint64) *KThread {
	k.registryMu.RLock()
	defer k.registryMu.RUnlock()
	return k.registry[gid]
}

func (k *Kernel) liveThreads() int {
	k.registryMu.RLock()
	defer k.registryMu.RUnlock()
	return len(k.registry)
}
