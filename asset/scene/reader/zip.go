package reader

import (
	"archive/zip"
	"bytes"
	"io"
	"time"

	"github.com/achilleasa/raybox/asset"
	"github.com/achilleasa/raybox/asset/scene"
	"github.com/achilleasa/raybox/log"
	"github.com/pkg/errors"
)

type zipSceneReader struct {
	logger log.Logger
}

// Create a new zip scene reader
func newZipSceneReader() *zipSceneReader {
	return &zipSceneReader{
		logger: log.New("zip reader"),
	}
}

// Read compiled scene buffers from zip file.
func (p *zipSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	p.logger.Noticef(`parsing compiled scene from "%s"`, sceneRes.Path())
	start := time.Now()

	// zip package requires a reader implementing ReaderAt. To work around
	// this requirement we read the entire zip file into memory and create
	// a reader from the bytes package that implements ReaderAt
	data, err := io.ReadAll(sceneRes)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrapf(err, "zipSceneReader: could not open %s", sceneRes.Path())
	}

	buffers := &scene.Buffers{}
	targets := map[string]*[]byte{
		scene.VertexBuffer:    &buffers.Vertices,
		scene.FaceBuffer:      &buffers.Faces,
		scene.MaterialBuffer:  &buffers.Materials,
		scene.BvhNodeBuffer:   &buffers.BvhNodes,
		scene.ModelInfoBuffer: &buffers.ModelInfos,
		scene.SphereBuffer:    &buffers.Spheres,
	}
	for _, f := range zr.File {
		dst, known := targets[f.Name]
		if !known {
			p.logger.Warningf("unknown file %s in scene zip file; skipping", f.Name)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		*dst, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "zipSceneReader: failed to load %s", f.Name)
		}
	}

	sc, err := scene.Decode(buffers)
	if err != nil {
		return nil, err
	}

	p.logger.Noticef("loaded scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return sc, nil
}
