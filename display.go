package alohava

import (
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/lanikai/alohava/internal/handle"
	"github.com/lanikai/alohava/internal/logging"
	"github.com/pkg/errors"
)

var log = logging.DefaultLogger.WithTag("va")

// Version reported by Initialize.
const (
	VersionMajor = 0
	VersionMinor = 31
)

// Config holds the runtime limits of a Display. The zero value is usable.
type Config struct {
	// Maximum number of live surfaces.
	MaxSurfaces int

	// Maximum number of live buffers, including image buffers.
	MaxBuffers int

	// Number of (profile, entrypoint) attribute tables kept from the driver.
	AttribCacheSize int
}

const (
	defaultMaxSurfaces     = 1024
	defaultMaxBuffers      = 8192
	defaultAttribCacheSize = 64

	maxConfigAttributes = 16
)

func (c *Config) setDefaults() {
	if c.MaxSurfaces <= 0 {
		c.MaxSurfaces = defaultMaxSurfaces
	}
	if c.MaxBuffers <= 0 {
		c.MaxBuffers = defaultMaxBuffers
	}
	if c.AttribCacheSize <= 0 {
		c.AttribCacheSize = defaultAttribCacheSize
	}
}

type displayState int

const (
	displayCreated displayState = iota
	displayInitialized
	displayTerminated
)

// Display is one connection to an accelerator driver. All other entities
// are scoped to a Display and become invalid when it terminates.
//
// A Display is safe for concurrent use. Entity metadata is guarded by a
// single mutex; SyncSurface is the only call that waits on the driver.
type Display struct {
	mu    sync.Mutex
	drv   Driver
	cfg   Config
	state displayState

	// Closed by Terminate to release blocked SyncSurface callers.
	done chan struct{}

	// Driver attribute tables keyed by attribKey.
	attribs *lru.Cache

	configs     *handle.Table[*configObject]
	contexts    *handle.Table[*contextObject]
	surfaces    *handle.Table[*surfaceObject]
	buffers     *handle.Table[*bufferObject]
	images      *handle.Table[*imageObject]
	subpictures *handle.Table[*subpictureObject]

	// Sequence number of the last submitted job.
	seq uint64

	maxWidth, maxHeight int
}

// GetDisplay opens the named driver from the registry. An empty name selects
// the driver named by $ALOHAVA_DRIVER, or "soft".
func GetDisplay(name string, cfg Config) (*Display, error) {
	drv, err := openDriver(name)
	if err != nil {
		return nil, err
	}
	return NewDisplay(drv, cfg), nil
}

// NewDisplay wraps an already constructed driver.
func NewDisplay(drv Driver, cfg Config) *Display {
	cfg.setDefaults()
	return &Display{
		drv:         drv,
		cfg:         cfg,
		done:        make(chan struct{}),
		attribs:     lru.New(cfg.AttribCacheSize),
		configs:     handle.NewTable[*configObject](kindConfig, 0),
		contexts:    handle.NewTable[*contextObject](kindContext, 0),
		surfaces:    handle.NewTable[*surfaceObject](kindSurface, cfg.MaxSurfaces),
		buffers:     handle.NewTable[*bufferObject](kindBuffer, cfg.MaxBuffers),
		images:      handle.NewTable[*imageObject](kindImage, 0),
		subpictures: handle.NewTable[*subpictureObject](kindSubpicture, 0),
	}
}

// DriverName returns the name of the underlying driver.
func (d *Display) DriverName() string {
	return d.drv.Name()
}

// Initialize opens the driver. It may be called once per Display.
func (d *Display) Initialize() (major, minor int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case displayInitialized:
		return 0, 0, errors.Wrap(ErrOperationFailed, "display already initialized")
	case displayTerminated:
		return 0, 0, errors.Wrap(ErrInvalidDisplay, "display terminated")
	}
	if err := d.drv.Open(); err != nil {
		return 0, 0, errors.Wrapf(ErrOperationFailed, "open driver %s: %v", d.drv.Name(), err)
	}
	d.maxWidth, d.maxHeight = d.drv.MaxResolution()
	d.state = displayInitialized
	log.Info("Initialized display with driver %s, VA-API %d.%d", d.drv.Name(), VersionMajor, VersionMinor)
	return VersionMajor, VersionMinor, nil
}

// Terminate closes the driver, waiting for queued work, and releases every
// entity. Callers blocked in SyncSurface return ErrInvalidDisplay.
func (d *Display) Terminate() error {
	d.mu.Lock()
	if d.state != displayInitialized {
		d.mu.Unlock()
		return errors.Wrap(ErrInvalidDisplay, "display not initialized")
	}
	d.state = displayTerminated
	close(d.done)
	d.mu.Unlock()

	// Completions delivered while the driver drains are dropped.
	closeErr := d.drv.Close()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.releaseAll()
	log.Info("Terminated display with driver %s", d.drv.Name())
	if closeErr != nil {
		return errors.Wrapf(ErrOperationFailed, "close driver %s: %v", d.drv.Name(), closeErr)
	}
	return nil
}

func (d *Display) releaseAll() {
	d.buffers.Each(func(id uint32, b *bufferObject) bool {
		b.free()
		return true
	})
	d.surfaces.Each(func(id uint32, s *surfaceObject) bool {
		s.free()
		return true
	})
	d.buffers.Clear()
	d.surfaces.Clear()
	d.images.Clear()
	d.subpictures.Clear()
	d.contexts.Clear()
	d.configs.Clear()
	d.attribs.Clear()
}

// check must be called with d.mu held.
func (d *Display) check() error {
	if d.state != displayInitialized {
		return ErrInvalidDisplay
	}
	return nil
}

// MaxNumProfiles returns the number of entries QueryConfigProfiles needs.
func (d *Display) MaxNumProfiles() int {
	return len(d.drv.Profiles())
}

// MaxNumEntrypoints returns the number of entries QueryConfigEntrypoints
// needs for any profile.
func (d *Display) MaxNumEntrypoints() int {
	n := 0
	for _, p := range d.drv.Profiles() {
		if m := len(d.drv.Entrypoints(p)); m > n {
			n = m
		}
	}
	return n
}

// MaxNumConfigAttributes returns the size of the largest attribute list a
// config may hold.
func (d *Display) MaxNumConfigAttributes() int {
	return maxConfigAttributes
}

func (d *Display) MaxNumImageFormats() int {
	return len(d.drv.ImageFormats())
}

func (d *Display) MaxNumSubpictureFormats() int {
	return len(d.drv.SubpictureFormats())
}
