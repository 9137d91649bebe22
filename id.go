package alohava

import (
	"fmt"

	"github.com/lanikai/alohava/internal/handle"
)

// Identifiers are opaque 32-bit values scoped to one Display. InvalidID is
// shared by every namespace and never names a live entity.
const InvalidID = handle.Invalid

type (
	ConfigID     uint32
	ContextID    uint32
	SurfaceID    uint32
	BufferID     uint32
	ImageID      uint32
	SubpictureID uint32
)

// ID namespaces.
const (
	kindConfig handle.Kind = iota + 1
	kindContext
	kindSurface
	kindBuffer
	kindImage
	kindSubpicture
)

func (id ConfigID) String() string     { return fmt.Sprintf("config %#08x", uint32(id)) }
func (id ContextID) String() string    { return fmt.Sprintf("context %#08x", uint32(id)) }
func (id SurfaceID) String() string    { return fmt.Sprintf("surface %#08x", uint32(id)) }
func (id BufferID) String() string     { return fmt.Sprintf("buffer %#08x", uint32(id)) }
func (id ImageID) String() string      { return fmt.Sprintf("image %#08x", uint32(id)) }
func (id SubpictureID) String() string { return fmt.Sprintf("subpicture %#08x", uint32(id)) }
