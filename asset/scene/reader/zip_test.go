package reader

import (
	"archive/zip"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/achilleasa/raybox/asset/compiler"
	"github.com/achilleasa/raybox/asset/scene"
	"github.com/achilleasa/raybox/asset/scene/writer"
)

func TestCompiledSceneRoundTrip(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"test.scene":       testSceneDescription,
		"meshes/tetra.ply": tetraPLY,
	})

	compiled, err := ReadScene(filepath.Join(dir, "test.scene"), compiler.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	zipFile := filepath.Join(dir, "test.zip")
	if err = writer.WriteScene(compiled, zipFile); err != nil {
		t.Fatal(err)
	}

	loaded, err := ReadScene(zipFile, compiler.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(compiled, loaded) {
		t.Fatalf("expected loaded scene to match the compiled scene\n%s\n%s", compiled.Stats(), loaded.Stats())
	}
}

func writeZip(t *testing.T, entries map[string][]byte) string {
	t.Helper()
	zipFile := filepath.Join(t.TempDir(), "scene.zip")
	f, err := os.Create(zipFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err = w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err = zw.Close(); err != nil {
		t.Fatal(err)
	}
	return zipFile
}

func TestZipReaderSkipsUnknownEntries(t *testing.T) {
	buffers, err := scene.Encode(&scene.Scene{
		FaceList: []scene.Face{scene.NewFace(0, 1, 2)},
	})
	if err != nil {
		t.Fatal(err)
	}

	zipFile := writeZip(t, map[string][]byte{
		scene.FaceBuffer: buffers.Faces,
		"README.txt":     []byte("not a buffer"),
	})

	sc, err := ReadScene(zipFile, compiler.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.FaceList) != 1 || sc.FaceList[0].Indices != [3]int32{0, 1, 2} {
		t.Fatalf("expected a single decoded face; got %v", sc.FaceList)
	}
	if sc.VertexList != nil || sc.BvhNodeList != nil {
		t.Fatal("expected missing buffers to decode as empty lists")
	}
}

func TestZipReaderTruncatedBuffer(t *testing.T) {
	zipFile := writeZip(t, map[string][]byte{
		scene.BvhNodeBuffer: make([]byte, scene.SizeofBvhNode+4),
	})

	_, err := ReadScene(zipFile, compiler.DefaultOptions())
	if err == nil || !strings.Contains(err.Error(), "could not decode "+scene.BvhNodeBuffer) {
		t.Fatalf("expected a decode error for %s; got %v", scene.BvhNodeBuffer, err)
	}
}

func TestZipReaderInvalidArchive(t *testing.T) {
	dir := writeFiles(t, map[string]string{"broken.zip": "definitely not a zip file"})

	_, err := ReadScene(filepath.Join(dir, "broken.zip"), compiler.DefaultOptions())
	if err == nil || !strings.Contains(err.Error(), "could not open") {
		t.Fatalf("expected an archive open error; got %v", err)
	}
}
