package reader

import (
	"github.com/achilleasa/raybox/asset"
	"github.com/achilleasa/raybox/asset/compiler"
	"github.com/achilleasa/raybox/asset/compiler/input"
	"github.com/achilleasa/raybox/asset/scene"
	"github.com/pkg/errors"
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*scene.Scene, error)
}

// Read scene from file. Scene descriptions (.scene) are compiled using the
// supplied options; compiled scene archives (.zip) are decoded as-is.
func ReadScene(filename string, options compiler.Options) (*scene.Scene, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	// Select reader based on file extension
	var reader Reader
	switch res.Ext() {
	case ".scene":
		reader = newDescriptionReader(options)
	case ".zip":
		reader = newZipSceneReader()
	default:
		return nil, errors.Errorf("readScene: unsupported file format for %q", filename)
	}
	return reader.Read(res)
}

// Parse a scene description file and load the meshes it references without
// compiling it.
func ReadDefinition(filename string) (*input.Scene, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return newDescriptionReader(compiler.DefaultOptions()).ReadDefinition(res)
}

// Read a PLY mesh from file.
func ReadMesh(filename string) (*input.Mesh, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return ReadPLY(res)
}
