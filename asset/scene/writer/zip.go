package writer

import (
	"archive/zip"
	"io"
	"os"
	"time"

	"github.com/achilleasa/raybox/asset/scene"
	"github.com/achilleasa/raybox/log"
	"github.com/pkg/errors"
)

type zipSceneWriter struct {
	logger    log.Logger
	sceneFile string
}

// Create a new zip scene writer
func newZipSceneWriter(sceneFile string) *zipSceneWriter {
	return &zipSceneWriter{
		logger:    log.New("zip writer"),
		sceneFile: sceneFile,
	}
}

// Write compiled scene buffers to zip file.
func (w *zipSceneWriter) Write(sc *scene.Scene) error {
	w.logger.Noticef("writing compressed scene to %s", w.sceneFile)
	start := time.Now()

	buffers, err := scene.Encode(sc)
	if err != nil {
		return err
	}

	zipFile, err := os.Create(w.sceneFile)
	if err != nil {
		return err
	}

	if err = WriteBuffers(zipFile, buffers); err != nil {
		zipFile.Close()
		return errors.Wrapf(err, "zipSceneWriter: could not write %s", w.sceneFile)
	}
	if err = zipFile.Close(); err != nil {
		return errors.Wrapf(err, "zipSceneWriter: could not write %s", w.sceneFile)
	}

	w.logger.Noticef("compressed scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Write each scene buffer as a separate zip entry.
func WriteBuffers(out io.Writer, buffers *scene.Buffers) error {
	zw := zip.NewWriter(out)
	for _, name := range scene.BufferNames {
		data, _ := buffers.ByName(name)
		cw, err := zw.Create(name)
		if err != nil {
			return err
		}
		if _, err = cw.Write(data); err != nil {
			return err
		}
	}
	return zw.Close()
}
