// Package feed reads compressed H.264 video for the sample decoder. A source
// is opened from a name of the form "tag:path"; the tag selects the
// container.
package feed

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lanikai/alohava/internal/logging"
	"github.com/pkg/errors"
)

var log = logging.DefaultLogger.WithTag("feed")

// AccessUnit is the set of NAL units making up one coded picture, without
// start codes or length prefixes.
type AccessUnit struct {
	NALUs    [][]byte
	KeyFrame bool
	Time     time.Duration
}

// Info describes the video stream of a source.
type Info struct {
	SPS []byte
	PPS []byte

	// Display size, when the container records it.
	Width, Height int
}

type Source interface {
	Info() Info

	// ReadAccessUnit returns the next picture, or io.EOF after the last one.
	ReadAccessUnit() (*AccessUnit, error)

	Close() error
}

// OpenFunc opens a source from the path part of a source name.
type OpenFunc func(path string) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]OpenFunc{}
)

// Register makes a source type available to Open under tag.
func Register(tag string, open OpenFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[tag] = open
}

// Tags returns the sorted list of registered source tags.
func Tags() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var tags []string
	for t := range registry {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Open a source from its name, "tag:path".
func Open(name string) (Source, error) {
	log.Debug("Registered source types: %v", Tags())

	parts := strings.SplitN(name, ":", 2)
	tag := parts[0]
	var path string
	if len(parts) == 2 {
		path = parts[1]
	}

	registryMu.RLock()
	open, found := registry[tag]
	registryMu.RUnlock()
	if !found {
		return nil, errors.Errorf("source type '%s' not registered", tag)
	}
	src, err := open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	return src, nil
}
