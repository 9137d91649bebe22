package alohava

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/lanikai/alohava/internal/fourcc"
	"github.com/pkg/errors"
)

// Driver is an accelerator backend. The runtime owns every entity and all
// state transitions; a driver only advertises capabilities and executes
// submitted work.
//
// Submit and Present must not block. Their completion callbacks are invoked
// exactly once, from a goroutine other than the caller's.
type Driver interface {
	Name() string
	Open() error
	// Close waits for queued work to complete.
	Close() error

	Profiles() []Profile
	Entrypoints(p Profile) []Entrypoint
	// Attributes lists the attribute types recognized for a pair.
	Attributes(p Profile, e Entrypoint) []AttribCap
	BufferTypes(e Entrypoint) []BufferType
	ImageFormats() []ImageFormat
	SubpictureFormats() []SubpictureFormat
	MaxResolution() (width, height int)
	// CanDerive reports whether surfaces stored as c can be exposed to clients
	// without copying.
	CanDerive(c fourcc.Code) bool

	Submit(job *Job, done func(Result))
	Present(p *Presentation, done func(error))
}

// AttribCap describes one recognized attribute: the bits a config may
// select and the value used when the client does not supply one.
type AttribCap struct {
	Type      ConfigAttribType
	Supported uint32
	Default   uint32
}

// SubpictureFormat is an image format usable for subpictures together with
// its capability flags.
type SubpictureFormat struct {
	Format ImageFormat
	Flags  uint32
}

// Target is the pixel storage a job or presentation operates on.
type Target struct {
	ID     SurfaceID
	Layout fourcc.Layout
	Pixels []byte
}

// ParamBuffer is a parameter buffer copied out of the client's data store.
type ParamBuffer struct {
	Type        BufferType
	Size        int
	NumElements int
	Data        []byte
}

// Slice is a complete slice: its parameter element and contiguous data.
type Slice struct {
	Params []byte
	Data   []byte
}

// Overlay is a subpicture association captured at submission time.
type Overlay struct {
	Subpicture  SubpictureID
	Layout      fourcc.Layout
	Pixels      []byte
	Palette     []byte
	Src         Rectangle
	Dst         Rectangle
	Flags       uint32
	ChromaKey   ChromaKey
	GlobalAlpha float32
}

type ChromaKey struct {
	Min, Max, Mask uint32
}

// Job is one picture handed to the driver at EndPicture.
type Job struct {
	Seq         uint64
	Context     ContextID
	Profile     Profile
	Entrypoint  Entrypoint
	Width       int
	Height      int
	Progressive bool
	Target      Target
	Buffers     []ParamBuffer
	Slices      []Slice
	// CodedBuffer receives the output of encode jobs.
	CodedBuffer BufferID
	Overlays    []Overlay
	// Discard marks a picture abandoned before it was complete. The driver
	// does no work for it beyond completing it in queue order.
	Discard bool
}

// CodedSegment is one piece of encoder output produced by a driver.
type CodedSegment struct {
	BitOffset uint32
	Data      []byte
}

// Result is the outcome of a job. Status is SurfaceReady or SurfaceSkipped.
type Result struct {
	Status SurfaceStatus
	Coded  []CodedSegment
	Err    error
}

// Presentation asks the driver to show a surface.
type Presentation struct {
	Target   Target
	Src      Rectangle
	Dst      Rectangle
	Overlays []Overlay
}

// OpenFunc creates a driver instance.
type OpenFunc func() (Driver, error)

var (
	driversMu sync.RWMutex
	drivers   = map[string]OpenFunc{}
)

// Environment variable selecting the driver when none is named.
const driverEnv = "ALOHAVA_DRIVER"

const defaultDriver = "soft"

// RegisterDriver makes a driver available to GetDisplay. It is typically
// called from the driver package's init function. Registering a name twice
// replaces the earlier entry.
func RegisterDriver(name string, open OpenFunc) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[name] = open
}

// Drivers returns the sorted names of the registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func openDriver(name string) (Driver, error) {
	if name == "" {
		name = strings.TrimSpace(os.Getenv(driverEnv))
	}
	if name == "" {
		name = defaultDriver
	}
	log.Debug("Registered drivers: %v", Drivers())

	driversMu.RLock()
	open, found := drivers[name]
	driversMu.RUnlock()
	if !found {
		return nil, errors.Wrapf(ErrInvalidDisplay, "driver '%s' not registered", name)
	}
	drv, err := open()
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidDisplay, "driver '%s': %v", name, err)
	}
	return drv, nil
}
