// Package soft is a software driver for the alohava runtime. It implements
// the full capability table but does no real video processing: decode jobs
// stamp a checksum of their slice data into the target, and encode jobs emit
// the target pixels as coded output. It is the default driver and the one
// the runtime is tested against.
package soft

import (
	"sync"
	"time"

	va "github.com/lanikai/alohava"
	"github.com/lanikai/alohava/internal/logging"
	"github.com/pkg/errors"
)

var log = logging.DefaultLogger.WithTag("soft")

// Name under which the driver registers itself.
const Name = "soft"

func init() {
	va.RegisterDriver(Name, func() (va.Driver, error) {
		return New(Options{}), nil
	})
}

// Options tune the simulated hardware. The zero value is usable.
type Options struct {
	// Time each job spends in the worker before completing.
	Latency time.Duration

	// Time a surface stays Displaying after PutSurface.
	PresentTime time.Duration

	// Every SkipInterval-th encode job is reported Skipped. Zero disables.
	SkipInterval int

	// Maximum size of one coded output segment.
	SegmentSize int

	// Largest supported surface.
	MaxWidth, MaxHeight int

	// Refuse DeriveImage for every surface format.
	DisableDerive bool
}

const (
	defaultSegmentSize = 64 * 1024
	defaultMaxWidth    = 4096
	defaultMaxHeight   = 4096
)

var (
	errClosed   = errors.New("driver closed")
	errNoSlices = errors.New("decode job without slices")
)

// Driver runs jobs one at a time, in submission order, on a single worker
// goroutine.
type Driver struct {
	opts Options

	mu      sync.Mutex
	queue   []task
	wake    chan struct{}
	running bool
	closed  bool

	// Closed when the worker exits.
	exited chan struct{}

	// Pending presentation timers.
	presenting sync.WaitGroup

	// Encode jobs completed, for skip simulation.
	encoded int
}

type task struct {
	job  *va.Job
	done func(va.Result)
}

// New creates a driver. Options left zero take their defaults.
func New(opts Options) *Driver {
	if opts.SegmentSize <= 0 {
		opts.SegmentSize = defaultSegmentSize
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = defaultMaxWidth
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = defaultMaxHeight
	}
	return &Driver{
		opts:   opts,
		wake:   make(chan struct{}, 1),
		exited: make(chan struct{}),
	}
}

func (d *Driver) Name() string {
	return Name
}

// Open starts the worker.
func (d *Driver) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errClosed
	}
	if d.running {
		return errors.New("driver already open")
	}
	d.running = true
	go d.work()
	log.Debug("Opened, latency %v, skip interval %d", d.opts.Latency, d.opts.SkipInterval)
	return nil
}

// Close runs every queued job and waits for pending presentations.
func (d *Driver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return errClosed
	}
	d.closed = true
	running := d.running
	d.mu.Unlock()

	if running {
		d.signal()
		<-d.exited
	}
	d.presenting.Wait()
	log.Debug("Closed")
	return nil
}

// Submit queues a job. It never blocks.
func (d *Driver) Submit(job *va.Job, done func(va.Result)) {
	d.mu.Lock()
	if d.closed || !d.running {
		d.mu.Unlock()
		go done(va.Result{Status: va.SurfaceReady, Err: errClosed})
		return
	}
	d.queue = append(d.queue, task{job, done})
	d.mu.Unlock()
	d.signal()
}

func (d *Driver) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Driver) work() {
	defer close(d.exited)
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			closed := d.closed
			d.mu.Unlock()
			if closed {
				return
			}
			<-d.wake
			continue
		}
		t := d.queue[0]
		d.queue[0] = task{}
		d.queue = d.queue[1:]
		d.mu.Unlock()

		if d.opts.Latency > 0 {
			time.Sleep(d.opts.Latency)
		}
		res := d.run(t.job)
		if res.Err != nil {
			log.Warn("Job %d on %v failed: %v", t.job.Seq, t.job.Target.ID, res.Err)
		}
		t.done(res)
	}
}

// Present keeps the surface Displaying for Options.PresentTime.
func (d *Driver) Present(p *va.Presentation, done func(error)) {
	d.mu.Lock()
	closed := d.closed
	if !closed {
		d.presenting.Add(1)
	}
	d.mu.Unlock()
	if closed {
		go done(errClosed)
		return
	}

	log.Trace(5, "Presenting %v %v -> %v with %d overlays", p.Target.ID, p.Src, p.Dst, len(p.Overlays))
	time.AfterFunc(d.opts.PresentTime, func() {
		defer d.presenting.Done()
		done(nil)
	})
}
