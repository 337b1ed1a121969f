package assembler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/achilleasa/raybox/asset/compiler"
	"github.com/achilleasa/raybox/asset/compiler/input"
	"github.com/achilleasa/raybox/asset/scene"
	"github.com/achilleasa/raybox/log"
	"github.com/pkg/errors"
)

var ErrSceneNotBuilt = errors.New("assembler: scene has not been built yet")

// A Loader provides the scene definition that gets compiled on each rebuild.
type Loader interface {
	Load() (*input.Scene, error)
}

// The LoaderFunc type is an adapter that allows the use of ordinary
// functions as scene loaders.
type LoaderFunc func() (*input.Scene, error)

// Load calls f().
func (f LoaderFunc) Load() (*input.Scene, error) {
	return f()
}

// An immutable compiled scene together with its encoded buffers.
type Snapshot struct {
	Scene   *scene.Scene
	Buffers *scene.Buffers

	// Incremented by each successful rebuild.
	Generation uint64
	BuiltAt    time.Time
}

// The Assembler owns the compiled scene that is handed to the rendering
// backend. The backend reads the current snapshot once per frame while
// Rebuild may run concurrently from another goroutine. A failed rebuild
// leaves the previous snapshot in place.
type Assembler struct {
	logger  log.Logger
	loader  Loader
	options compiler.Options

	// Serializes rebuilds.
	mu         sync.Mutex
	generation uint64

	current atomic.Pointer[Snapshot]
}

// Create an assembler that compiles the scenes returned by loader.
func New(loader Loader, options compiler.Options) *Assembler {
	return &Assembler{
		logger:  log.New("assembler"),
		loader:  loader,
		options: options,
	}
}

// Load, compile and encode the scene and publish it as the current snapshot.
func (a *Assembler) Rebuild() (*Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	parsedScene, err := a.loader.Load()
	if err != nil {
		return nil, errors.Wrap(err, "assembler: could not load scene")
	}

	sc, err := compiler.Compile(parsedScene, a.options)
	if err != nil {
		return nil, errors.Wrap(err, "assembler: could not compile scene")
	}

	buffers, err := scene.Encode(sc)
	if err != nil {
		return nil, err
	}

	a.generation++
	snapshot := &Snapshot{
		Scene:      sc,
		Buffers:    buffers,
		Generation: a.generation,
		BuiltAt:    time.Now(),
	}
	a.current.Store(snapshot)

	a.logger.Noticef("published scene generation %d (%d bytes) in %d ms", snapshot.Generation, buffers.Size(), time.Since(start).Nanoseconds()/1e6)
	return snapshot, nil
}

// Get the current snapshot.
func (a *Assembler) Snapshot() (*Snapshot, error) {
	snapshot := a.current.Load()
	if snapshot == nil {
		return nil, ErrSceneNotBuilt
	}
	return snapshot, nil
}

// Get the encoded buffers of the current snapshot. The returned buffers are
// shared and must not be modified.
func (a *Assembler) Buffers() (*scene.Buffers, error) {
	snapshot, err := a.Snapshot()
	if err != nil {
		return nil, err
	}
	return snapshot.Buffers, nil
}
