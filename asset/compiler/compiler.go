package compiler

import (
	"time"

	"github.com/achilleasa/raybox/asset/compiler/bvh"
	"github.com/achilleasa/raybox/asset/compiler/input"
	"github.com/achilleasa/raybox/asset/scene"
	"github.com/achilleasa/raybox/log"
	"github.com/pkg/errors"
)

const (
	// The default number of faces per BVH leaf.
	DefaultLeafThreshold = 2
)

var ErrUnknownMaterial = errors.New("compiler: undefined material")

// Options control how scene geometry is partitioned.
type Options struct {
	// Partitions with this many faces or less become BVH leafs. Models
	// may override it.
	LeafThreshold int

	// The order in which BVH children are flattened.
	Order bvh.ChildOrder

	// Validate each model BVH after it has been flattened.
	Verify bool
}

// Get the default compiler options.
func DefaultOptions() Options {
	return Options{
		LeafThreshold: DefaultLeafThreshold,
		Order:         bvh.RightFirst,
	}
}

type sceneCompiler struct {
	parsedScene *input.Scene
	options     Options
	collector   *Collector
	logger      log.Logger
}

// Compile a scene definition parsed by a scene reader into the flat record
// lists consumed by the ray intersection kernels.
func Compile(parsedScene *input.Scene, options Options) (*scene.Scene, error) {
	if options.LeafThreshold == 0 {
		options.LeafThreshold = DefaultLeafThreshold
	}

	compiler := &sceneCompiler{
		parsedScene: parsedScene,
		options:     options,
		collector:   NewCollector(options.Order),
		logger:      log.New("scene compiler"),
	}

	start := time.Now()
	compiler.logger.Noticef("compiling scene (%d elements, leaf threshold %d, %s layout)", len(parsedScene.Elements), options.LeafThreshold, options.Order)

	err := compiler.collectGeometry()
	if err != nil {
		return nil, err
	}

	if options.Verify {
		err = compiler.verifyBvh()
		if err != nil {
			return nil, err
		}
	}

	compiler.logger.Noticef("compiled scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return compiler.collector.Scene(), nil
}

// Feed each scene element to the collector in definition order.
func (sc *sceneCompiler) collectGeometry() error {
	start := time.Now()
	sc.logger.Notice("collecting geometry")

	for elemIndex, elem := range sc.parsedScene.Elements {
		var err error
		switch e := elem.(type) {
		case *input.Quad:
			var mat scene.Material
			if mat, err = sc.material(e.Material); err == nil {
				sc.collector.AddQuad(e.Corners, e.Normal, mat)
			}
		case *input.Model:
			var mat scene.Material
			if mat, err = sc.material(e.Material); err == nil {
				leafThreshold := sc.options.LeafThreshold
				if e.LeafThreshold > 0 {
					leafThreshold = e.LeafThreshold
				}
				_, err = sc.collector.AddModel(e.Mesh, e.Transform, mat, leafThreshold)
			}
		case *input.Sphere:
			var mat scene.Material
			if mat, err = sc.material(e.Material); err == nil {
				sc.collector.AddSphere(e.Center, e.Radius, mat)
			}
		case *input.CornellBox:
			err = sc.addCornellBox(e)
		default:
			err = errors.Errorf("compiler: unsupported scene element of type %T", elem)
		}

		if err != nil {
			return errors.Wrapf(err, "element %d", elemIndex)
		}
	}

	for _, mat := range sc.parsedScene.Materials {
		if !mat.Used {
			sc.logger.Warningf("material %q is not referenced by any scene element", mat.Name)
		}
	}

	sc.logger.Noticef("collected geometry in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

func (sc *sceneCompiler) addCornellBox(box *input.CornellBox) error {
	var walls [input.NumWalls]scene.Material
	for wall, name := range box.Walls {
		mat, err := sc.material(name)
		if err != nil {
			return err
		}
		walls[wall] = mat
	}

	light, err := sc.material(box.Light)
	if err != nil {
		return err
	}

	sc.collector.AddCornellBox(box.Center, box.Size, walls, light)
	return nil
}

// Lookup a material definition by name and flag it as used.
func (sc *sceneCompiler) material(name string) (scene.Material, error) {
	mat := sc.parsedScene.Material(name)
	if mat == nil {
		return scene.Material{}, errors.Wrapf(ErrUnknownMaterial, "%q", name)
	}
	mat.Used = true
	return mat.Props, nil
}

// Validate the BVH tree of every model.
func (sc *sceneCompiler) verifyBvh() error {
	optimizedScene := sc.collector.Scene()
	for modelIndex, model := range optimizedScene.ModelList {
		summary, err := bvh.Validate(optimizedScene.BvhNodeList, model.FirstNodeIndex, model.LastNodeIndex, bvh.NoMiss)
		if err != nil {
			return errors.Wrapf(err, "model %d", modelIndex)
		}
		if summary.LastFace-summary.FirstFace != model.FaceCount {
			return errors.Errorf("compiler: model %d BVH leafs cover %d faces; expected %d", modelIndex, summary.LastFace-summary.FirstFace, model.FaceCount)
		}
		sc.logger.Debugf("model %d BVH: %d nodes, %d leafs, max depth %d", modelIndex, summary.Nodes, summary.Leafs, summary.MaxDepth)
	}
	return nil
}
