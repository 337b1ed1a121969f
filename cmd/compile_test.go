package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/raybox/asset/compiler"
	"github.com/achilleasa/raybox/asset/scene/reader"
	"github.com/urfave/cli"
)

const testScene = `material white
material light emission 1 1 1 strength 5
quad white 0 0 0 1 0 0 1 1 0 0 1 0 0 0 1
quad light 0 2 0 1 2 0 1 2 1 0 2 1 0 -1 0
sphere white 0 0.5 0 0.25
`

func compileFlags() []cli.Flag {
	return append([]cli.Flag{cli.StringFlag{Name: "out, o"}}, CompilerFlags...)
}

func TestCompileScene(t *testing.T) {
	dir := t.TempDir()
	sceneFile := filepath.Join(dir, "test.scene")
	if err := os.WriteFile(sceneFile, []byte(testScene), 0644); err != nil {
		t.Fatal(err)
	}

	if err := CompileScene(newContext(t, compileFlags(), "--verify", sceneFile)); err != nil {
		t.Fatal(err)
	}

	sc, err := reader.ReadScene(filepath.Join(dir, "test.zip"), compiler.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.ModelList) != 2 || len(sc.SphereList) != 1 || len(sc.MaterialList) != 2 {
		t.Fatalf("expected 2 models, 1 sphere and 2 materials; got %d, %d and %d", len(sc.ModelList), len(sc.SphereList), len(sc.MaterialList))
	}

	// Explicit output file
	outFile := filepath.Join(dir, "custom.zip")
	if err = CompileScene(newContext(t, compileFlags(), "--out", outFile, sceneFile)); err != nil {
		t.Fatal(err)
	}
	if _, err = os.Stat(outFile); err != nil {
		t.Fatalf("expected compiled scene at %s; got %v", outFile, err)
	}
}

func TestCompileSceneErrors(t *testing.T) {
	dir := t.TempDir()
	sceneFile := filepath.Join(dir, "test.scene")
	if err := os.WriteFile(sceneFile, []byte(testScene), 0644); err != nil {
		t.Fatal(err)
	}

	type spec struct {
		args     []string
		expError string
	}
	specs := []spec{
		{nil, "missing scene description file"},
		{[]string{"--leaf-size", "0", sceneFile}, "leaf size must be at least 1"},
		{[]string{filepath.Join(dir, "missing.scene")}, "could not load scene"},
	}

	for index, s := range specs {
		err := CompileScene(newContext(t, compileFlags(), s.args...))
		if err == nil || !strings.Contains(err.Error(), s.expError) {
			t.Fatalf("[spec %d] expected error containing %q; got %v", index, s.expError, err)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "test.zip")); !os.IsNotExist(err) {
		t.Fatalf("expected no archive to be written for failed compilations; got %v", err)
	}
}
