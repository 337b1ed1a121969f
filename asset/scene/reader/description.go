package reader

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/raybox/asset"
	"github.com/achilleasa/raybox/asset/compiler"
	"github.com/achilleasa/raybox/asset/compiler/input"
	"github.com/achilleasa/raybox/asset/scene"
	"github.com/achilleasa/raybox/log"
	"github.com/achilleasa/raybox/types"
	"github.com/pkg/errors"
)

type descriptionReader struct {
	logger  log.Logger
	options compiler.Options

	// The parsed scene.
	rawScene *input.Scene

	// Meshes loaded so far indexed by their resolved path.
	meshCache map[string]*input.Mesh

	// An error stack that provides additional error information when
	// scene files include other files.
	errStack []string

	// Resolved paths of the files currently being parsed, outermost first.
	includeChain []string
}

// Create a new scene description reader.
func newDescriptionReader(options compiler.Options) *descriptionReader {
	return &descriptionReader{
		logger:    log.New("scene reader"),
		options:   options,
		rawScene:  input.NewScene(),
		meshCache: make(map[string]*input.Mesh),
		errStack:  make([]string, 0),
	}
}

// Read and compile a scene description.
func (r *descriptionReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	rawScene, err := r.ReadDefinition(sceneRes)
	if err != nil {
		return nil, err
	}

	// Compile scene into the flat lists expected by the kernels
	return compiler.Compile(rawScene, r.options)
}

// Parse a scene description without compiling it.
func (r *descriptionReader) ReadDefinition(sceneRes *asset.Resource) (*input.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	r.rawScene.Resource = sceneRes
	err := r.parse(sceneRes)
	if err != nil {
		return nil, err
	}

	r.logger.Noticef("parsed scene in %d ms (%d materials, %d elements)", time.Since(start).Nanoseconds()/1e6, len(r.rawScene.Materials), len(r.rawScene.Elements))
	return r.rawScene, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *descriptionReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)
	errMsg := strings.Trim(
		fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
		"\n",
	)
	return errors.New(errMsg)
}

// Push a frame to the error stack.
func (r *descriptionReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *descriptionReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Check whether path is being parsed further up the include chain.
func (r *descriptionReader) isIncluded(path string) bool {
	for _, included := range r.includeChain {
		if included == path {
			return true
		}
	}
	return false
}

// Parse scene description format.
func (r *descriptionReader) parse(res *asset.Resource) error {
	var lineNum int = 0

	r.includeChain = append(r.includeChain, res.Path())
	defer func() {
		r.includeChain = r.includeChain[:len(r.includeChain)-1]
	}()

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if commentStart := strings.IndexByte(line, '#'); commentStart != -1 {
			line = line[:commentStart]
		}
		lineTokens := strings.Fields(line)
		if len(lineTokens) == 0 {
			continue
		}

		var err error
		switch lineTokens[0] {
		case "include":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "include"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			if r.isIncluded(incRes.Path()) {
				incRes.Close()
				chain := append(append([]string{}, r.includeChain...), incRes.Path())
				return r.emitError(res.Path(), lineNum, "include cycle: %s", strings.Join(chain, " -> "))
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [include]", res.Path(), lineNum))
			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "material":
			err = r.parseMaterial(lineTokens)
		case "quad":
			err = r.parseQuad(lineTokens)
		case "model":
			err = r.parseModel(lineTokens, res)
		case "sphere":
			err = r.parseSphere(lineTokens)
		case "cornell":
			err = r.parseCornellBox(lineTokens)
		default:
			err = errors.Errorf("unknown keyword %q", lineTokens[0])
		}

		if err != nil {
			return r.emitError(res.Path(), lineNum, "%s", err.Error())
		}
	}

	return scanner.Err()
}

// Parse a material definition:
// material name [color r g b] [smoothness s] [emission r g b] [strength s] [refraction p] [ior n]
func (r *descriptionReader) parseMaterial(lineTokens []string) error {
	if len(lineTokens) < 2 {
		return errors.Errorf(`unsupported syntax for "material"; expected a material name`)
	}

	name := lineTokens[1]
	if r.rawScene.Material(name) != nil {
		return errors.Errorf("duplicate definition for material %q", name)
	}

	mat := &input.Material{
		Name: name,
		Props: scene.Material{
			Color:           types.Vec3{1, 1, 1},
			RefractionIndex: 1,
		},
	}

	var err error
	for tokIdx := 2; tokIdx < len(lineTokens); {
		key := lineTokens[tokIdx]
		args := lineTokens[tokIdx:]
		switch key {
		case "color":
			mat.Props.Color, err = parseVec3(args)
			tokIdx += 4
		case "emission":
			mat.Props.EmissionColor, err = parseVec3(args)
			tokIdx += 4
		case "smoothness":
			mat.Props.Smoothness, err = parseFloat32(args)
			tokIdx += 2
		case "strength":
			mat.Props.EmissionStrength, err = parseFloat32(args)
			tokIdx += 2
		case "refraction":
			mat.Props.RefractionProbability, err = parseFloat32(args)
			tokIdx += 2
		case "ior":
			mat.Props.RefractionIndex, err = parseFloat32(args)
			tokIdx += 2
		default:
			return errors.Errorf("unknown material property %q", key)
		}

		if err != nil {
			return err
		}
	}

	r.rawScene.Materials = append(r.rawScene.Materials, mat)
	return nil
}

// Parse a quad definition:
// quad material x0 y0 z0 x1 y1 z1 x2 y2 z2 x3 y3 z3 nx ny nz
func (r *descriptionReader) parseQuad(lineTokens []string) error {
	if len(lineTokens) != 17 {
		return errors.Errorf(`unsupported syntax for "quad"; expected 16 arguments: material x0 y0 z0 x1 y1 z1 x2 y2 z2 x3 y3 z3 nx ny nz; got %d`, len(lineTokens)-1)
	}

	quad := &input.Quad{Material: lineTokens[1]}
	if err := r.checkMaterial(quad.Material); err != nil {
		return err
	}

	var err error
	for corner := 0; corner < 4; corner++ {
		quad.Corners[corner], err = parseVec3(lineTokens[1+3*corner:])
		if err != nil {
			return err
		}
	}
	quad.Normal, err = parseVec3(lineTokens[13:])
	if err != nil {
		return err
	}

	r.rawScene.Elements = append(r.rawScene.Elements, quad)
	return nil
}

// Parse a model definition:
// model mesh.ply material [offset x y z] [scale s] [angle deg] [leaf n]
func (r *descriptionReader) parseModel(lineTokens []string, res *asset.Resource) error {
	if len(lineTokens) < 3 {
		return errors.Errorf(`unsupported syntax for "model"; expected at least 2 arguments: mesh material; got %d`, len(lineTokens)-1)
	}

	model := &input.Model{
		Material:  lineTokens[2],
		Transform: input.IdentityTransform(),
	}
	if err := r.checkMaterial(model.Material); err != nil {
		return err
	}

	var err error
	for tokIdx := 3; tokIdx < len(lineTokens); {
		key := lineTokens[tokIdx]
		args := lineTokens[tokIdx:]
		switch key {
		case "offset":
			model.Transform.Offset, err = parseVec3(args)
			tokIdx += 4
		case "scale":
			model.Transform.Scale, err = parseFloat32(args)
			tokIdx += 2
		case "angle":
			model.Transform.Angle, err = parseFloat32(args)
			tokIdx += 2
		case "leaf":
			var threshold float32
			threshold, err = parseFloat32(args)
			if err == nil && (threshold < 1 || threshold != float32(int(threshold))) {
				err = errors.Errorf("leaf threshold must be a positive integer; got %v", threshold)
			}
			model.LeafThreshold = int(threshold)
			tokIdx += 2
		default:
			return errors.Errorf("unknown model property %q", key)
		}

		if err != nil {
			return err
		}
	}

	model.Mesh, err = r.loadMesh(lineTokens[1], res)
	if err != nil {
		return err
	}

	r.rawScene.Elements = append(r.rawScene.Elements, model)
	return nil
}

// Load a mesh relative to the scene resource. Meshes referenced by multiple
// models are only loaded once.
func (r *descriptionReader) loadMesh(path string, relTo *asset.Resource) (*input.Mesh, error) {
	meshRes, err := asset.NewResource(path, relTo)
	if err != nil {
		return nil, err
	}
	defer meshRes.Close()

	if mesh, exists := r.meshCache[meshRes.Path()]; exists {
		return mesh, nil
	}
	if meshRes.IsRemote() {
		r.logger.Infof(`fetching remote mesh "%s"`, meshRes.Path())
	}

	mesh, err := ReadPLY(meshRes)
	if err != nil {
		return nil, err
	}

	if !mesh.HasNormals() {
		r.logger.Infof(`generating vertex normals for "%s"`, meshRes.Path())
		mesh.GenerateNormals()
	}

	r.meshCache[meshRes.Path()] = mesh
	return mesh, nil
}

// Parse a sphere definition:
// sphere material x y z radius
func (r *descriptionReader) parseSphere(lineTokens []string) error {
	if len(lineTokens) != 6 {
		return errors.Errorf(`unsupported syntax for "sphere"; expected 5 arguments: material x y z radius; got %d`, len(lineTokens)-1)
	}

	sphere := &input.Sphere{Material: lineTokens[1]}
	if err := r.checkMaterial(sphere.Material); err != nil {
		return err
	}

	var err error
	if sphere.Center, err = parseVec3(lineTokens[1:]); err != nil {
		return err
	}
	if sphere.Radius, err = parseFloat32(lineTokens[4:]); err != nil {
		return err
	}
	if sphere.Radius <= 0 {
		return errors.Errorf("sphere radius must be positive; got %v", sphere.Radius)
	}

	r.rawScene.Elements = append(r.rawScene.Elements, sphere)
	return nil
}

// Parse a cornell box definition:
// cornell cx cy cz sx sy sz left right bottom top back front light
func (r *descriptionReader) parseCornellBox(lineTokens []string) error {
	if len(lineTokens) != 14 {
		return errors.Errorf(`unsupported syntax for "cornell"; expected 13 arguments: cx cy cz sx sy sz left right bottom top back front light; got %d`, len(lineTokens)-1)
	}

	box := &input.CornellBox{}

	var err error
	if box.Center, err = parseVec3(lineTokens); err != nil {
		return err
	}
	if box.Size, err = parseVec3(lineTokens[3:]); err != nil {
		return err
	}

	copy(box.Walls[:], lineTokens[7:7+input.NumWalls])
	box.Light = lineTokens[13]
	for _, name := range box.MaterialNames() {
		if err = r.checkMaterial(name); err != nil {
			return err
		}
	}

	r.rawScene.Elements = append(r.rawScene.Elements, box)
	return nil
}

func (r *descriptionReader) checkMaterial(name string) error {
	if r.rawScene.Material(name) == nil {
		return errors.Errorf("undefined material %q", name)
	}
	return nil
}

// Parse a float32 argument.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, errors.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 argument.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, errors.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
