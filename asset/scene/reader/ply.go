package reader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/raybox/asset"
	"github.com/achilleasa/raybox/asset/compiler/input"
	"github.com/achilleasa/raybox/log"
	"github.com/pkg/errors"
)

var ErrUnsupportedFormat = errors.New("reader: unsupported PLY format")

type plyElement struct {
	name       string
	count      int
	properties []string
}

type plyReader struct {
	logger log.Logger

	// Elements declared by the header in declaration order. A header that
	// declares no elements selects the legacy row format.
	elements []*plyElement
}

// Read an ASCII PLY mesh. Two dialects are supported:
//   - a regular header with "element vertex" and "element face" declarations
//   - a header-less variant where "ply" is directly followed by "end_header"
//     and each row either holds a vertex (3 or 6 values) or a triangle
//     ("3 i0 i1 i2")
//
// Polygons with more than 3 vertices are triangulated as fans.
func ReadPLY(res *asset.Resource) (*input.Mesh, error) {
	r := &plyReader{logger: log.New("ply reader")}

	r.logger.Infof(`parsing mesh from "%s"`, res.Path())
	start := time.Now()

	mesh, err := r.parse(res.Path(), res)
	if err != nil {
		return nil, err
	}

	r.logger.Infof("parsed %d vertices and %d faces in %d ms", len(mesh.Vertices), len(mesh.Faces), time.Since(start).Nanoseconds()/1e6)
	return mesh, nil
}

func (r *plyReader) parse(name string, source io.Reader) (*input.Mesh, error) {
	scanner := bufio.NewScanner(source)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNum, err := r.parseHeader(name, scanner)
	if err != nil {
		return nil, err
	}

	mesh := input.NewMesh(name)
	if len(r.elements) == 0 {
		err = r.parseLegacyBody(name, scanner, lineNum, mesh)
	} else {
		err = r.parseBody(name, scanner, lineNum, mesh)
	}
	if err != nil {
		return nil, err
	}

	if err = scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "[%s] error", name)
	}

	if err = validateFaces(mesh); err != nil {
		return nil, errors.Wrapf(err, "[%s] error", name)
	}
	return mesh, nil
}

// Parse the header and return the number of consumed lines.
func (r *plyReader) parseHeader(name string, scanner *bufio.Scanner) (int, error) {
	var lineNum int
	var curElement *plyElement
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 {
			continue
		}

		if lineNum == 1 {
			if lineTokens[0] != "ply" {
				return lineNum, errors.Wrapf(ErrUnsupportedFormat, "[%s: %d] missing ply magic", name, lineNum)
			}
			continue
		}

		switch lineTokens[0] {
		case "end_header":
			return lineNum, nil
		case "comment", "obj_info":
		case "format":
			if len(lineTokens) < 2 || lineTokens[1] != "ascii" {
				return lineNum, errors.Wrapf(ErrUnsupportedFormat, "[%s: %d] only ascii PLY files are supported", name, lineNum)
			}
		case "element":
			if len(lineTokens) != 3 {
				return lineNum, errors.Errorf(`[%s: %d] error: unsupported syntax for "element"; expected 2 arguments; got %d`, name, lineNum, len(lineTokens)-1)
			}
			count, err := strconv.Atoi(lineTokens[2])
			if err != nil || count < 0 {
				return lineNum, errors.Errorf(`[%s: %d] error: invalid element count %q`, name, lineNum, lineTokens[2])
			}
			curElement = &plyElement{name: lineTokens[1], count: count}
			r.elements = append(r.elements, curElement)
		case "property":
			if curElement == nil {
				return lineNum, errors.Errorf(`[%s: %d] error: property declared outside of an element`, name, lineNum)
			}
			curElement.properties = append(curElement.properties, lineTokens[len(lineTokens)-1])
		default:
			return lineNum, errors.Errorf(`[%s: %d] error: unexpected header keyword %q`, name, lineNum, lineTokens[0])
		}
	}

	return lineNum, errors.Wrapf(ErrUnsupportedFormat, "[%s: %d] missing end_header", name, lineNum)
}

// Parse element rows in declaration order.
func (r *plyReader) parseBody(name string, scanner *bufio.Scanner, lineNum int, mesh *input.Mesh) error {
	for _, element := range r.elements {
		var propIndex map[string]int
		if element.name == "vertex" {
			propIndex = make(map[string]int, len(element.properties))
			for index, prop := range element.properties {
				propIndex[prop] = index
			}
			for _, required := range []string{"x", "y", "z"} {
				if _, ok := propIndex[required]; !ok {
					return errors.Errorf("[%s] error: vertex element does not define property %q", name, required)
				}
			}
		}

		for row := 0; row < element.count; {
			if !scanner.Scan() {
				return errors.Errorf("[%s: %d] error: unexpected end of file; expected %d %s rows; got %d", name, lineNum, element.count, element.name, row)
			}
			lineNum++
			lineTokens := strings.Fields(scanner.Text())
			if len(lineTokens) == 0 {
				continue
			}
			row++

			var err error
			switch element.name {
			case "vertex":
				err = parsePLYVertex(lineTokens, propIndex, mesh)
			case "face":
				err = parsePLYFace(lineTokens, mesh)
			}
			if err != nil {
				return errors.Errorf("[%s: %d] error: %s", name, lineNum, err.Error())
			}
		}
	}
	return nil
}

// Parse the header-less row format.
func (r *plyReader) parseLegacyBody(name string, scanner *bufio.Scanner, lineNum int, mesh *input.Mesh) error {
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())

		var err error
		switch len(lineTokens) {
		case 0:
			continue
		case 3:
			err = parsePLYVertex(lineTokens, map[string]int{"x": 0, "y": 1, "z": 2}, mesh)
		case 6:
			err = parsePLYVertex(lineTokens, map[string]int{"x": 0, "y": 1, "z": 2, "nx": 3, "ny": 4, "nz": 5}, mesh)
		case 4:
			err = parsePLYFace(lineTokens, mesh)
		default:
			err = errors.Errorf("expected a vertex row with 3 or 6 values or a face row with 4 values; got %d values", len(lineTokens))
		}
		if err != nil {
			return errors.Errorf("[%s: %d] error: %s", name, lineNum, err.Error())
		}
	}
	return nil
}

func parsePLYVertex(lineTokens []string, propIndex map[string]int, mesh *input.Mesh) error {
	value := func(prop string) (float32, error) {
		index, ok := propIndex[prop]
		if !ok {
			return 0, nil
		}
		if index >= len(lineTokens) {
			return 0, errors.Errorf("vertex row is missing property %q", prop)
		}
		v, err := strconv.ParseFloat(lineTokens[index], 32)
		if err != nil {
			return 0, err
		}
		return float32(v), nil
	}

	var vertex input.Vertex
	for axis, prop := range []string{"x", "y", "z"} {
		v, err := value(prop)
		if err != nil {
			return err
		}
		vertex.Position[axis] = v
	}
	for axis, prop := range []string{"nx", "ny", "nz"} {
		v, err := value(prop)
		if err != nil {
			return err
		}
		vertex.Normal[axis] = v
	}

	mesh.Vertices = append(mesh.Vertices, vertex)
	return nil
}

func parsePLYFace(lineTokens []string, mesh *input.Mesh) error {
	count, err := strconv.Atoi(lineTokens[0])
	if err != nil {
		return err
	}
	if count < 3 {
		return errors.Errorf("faces need at least 3 vertices; got %d", count)
	}
	if len(lineTokens) != count+1 {
		return errors.Errorf("face declares %d vertices but lists %d", count, len(lineTokens)-1)
	}

	indices := make([]int32, count)
	for index := range indices {
		v, err := strconv.ParseInt(lineTokens[index+1], 10, 32)
		if err != nil {
			return err
		}
		indices[index] = int32(v)
	}

	for index := 1; index < count-1; index++ {
		mesh.Faces = append(mesh.Faces, [3]int32{indices[0], indices[index], indices[index+1]})
	}
	return nil
}

func validateFaces(mesh *input.Mesh) error {
	vertexCount := int32(len(mesh.Vertices))
	for faceIndex, face := range mesh.Faces {
		for _, vertexIndex := range face {
			if vertexIndex < 0 || vertexIndex >= vertexCount {
				return errors.Errorf("face %d references vertex %d; mesh has %d vertices", faceIndex, vertexIndex, vertexCount)
			}
		}
	}
	return nil
}

// Write mesh as an ASCII PLY file with a full header.
func WritePLY(w io.Writer, mesh *input.Mesh) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "ply\nformat ascii 1.0\n")
	if mesh.Name != "" {
		fmt.Fprintf(bw, "comment %s\n", mesh.Name)
	}
	fmt.Fprintf(bw, "element vertex %d\n", len(mesh.Vertices))
	for _, prop := range []string{"x", "y", "z", "nx", "ny", "nz"} {
		fmt.Fprintf(bw, "property float %s\n", prop)
	}
	fmt.Fprintf(bw, "element face %d\n", len(mesh.Faces))
	fmt.Fprintf(bw, "property list uchar int vertex_indices\nend_header\n")

	for _, v := range mesh.Vertices {
		fmt.Fprintf(bw, "%s %s %s %s %s %s\n",
			fmtFloat(v.Position[0]), fmtFloat(v.Position[1]), fmtFloat(v.Position[2]),
			fmtFloat(v.Normal[0]), fmtFloat(v.Normal[1]), fmtFloat(v.Normal[2]),
		)
	}
	for _, face := range mesh.Faces {
		fmt.Fprintf(bw, "3 %d %d %d\n", face[0], face[1], face[2])
	}

	return bw.Flush()
}

func fmtFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
