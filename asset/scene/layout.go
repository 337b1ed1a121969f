package scene

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// Record strides in bytes as expected by the ray intersection kernels.
const (
	SizeofVertex    = 32
	SizeofFace      = 16
	SizeofMaterial  = 48
	SizeofBvhNode   = 48
	SizeofModelInfo = 32
	SizeofSphere    = 64
)

// Buffer names. They double as the entry names in compiled scene archives.
const (
	VertexBuffer    = "vertices.bin"
	FaceBuffer      = "faces.bin"
	MaterialBuffer  = "materials.bin"
	BvhNodeBuffer   = "bvh.bin"
	ModelInfoBuffer = "models.bin"
	SphereBuffer    = "spheres.bin"
)

// BufferNames lists all scene buffers in upload order.
var BufferNames = []string{VertexBuffer, FaceBuffer, MaterialBuffer, BvhNodeBuffer, ModelInfoBuffer, SphereBuffer}

// Buffers holds the little-endian encoding of each scene list. The contents
// are shared with every reader and must be treated as read-only.
type Buffers struct {
	Vertices   []byte
	Faces      []byte
	Materials  []byte
	BvhNodes   []byte
	ModelInfos []byte
	Spheres    []byte
}

// Lookup a buffer by name.
func (b *Buffers) ByName(name string) ([]byte, bool) {
	switch name {
	case VertexBuffer:
		return b.Vertices, true
	case FaceBuffer:
		return b.Faces, true
	case MaterialBuffer:
		return b.Materials, true
	case BvhNodeBuffer:
		return b.BvhNodes, true
	case ModelInfoBuffer:
		return b.ModelInfos, true
	case SphereBuffer:
		return b.Spheres, true
	}
	return nil, false
}

// Get the combined size of all buffers.
func (b *Buffers) Size() int {
	return len(b.Vertices) + len(b.Faces) + len(b.Materials) + len(b.BvhNodes) + len(b.ModelInfos) + len(b.Spheres)
}

// Encode the scene lists into their binary representation.
func Encode(sc *Scene) (*Buffers, error) {
	var err error
	out := &Buffers{}
	targets := []struct {
		name string
		dst  *[]byte
		data interface{}
	}{
		{VertexBuffer, &out.Vertices, sc.VertexList},
		{FaceBuffer, &out.Faces, sc.FaceList},
		{MaterialBuffer, &out.Materials, sc.MaterialList},
		{BvhNodeBuffer, &out.BvhNodes, sc.BvhNodeList},
		{ModelInfoBuffer, &out.ModelInfos, sc.ModelList},
		{SphereBuffer, &out.Spheres, sc.SphereList},
	}

	for _, target := range targets {
		*target.dst, err = encodeList(target.data)
		if err != nil {
			return nil, errors.Wrapf(err, "scene: could not encode %s", target.name)
		}
	}

	return out, nil
}

// Decode a scene from its binary representation.
func Decode(b *Buffers) (*Scene, error) {
	sc := &Scene{}

	var err error
	if sc.VertexList, err = decodeList[Vertex](b.Vertices, SizeofVertex); err != nil {
		return nil, errors.Wrapf(err, "scene: could not decode %s", VertexBuffer)
	}
	if sc.FaceList, err = decodeList[Face](b.Faces, SizeofFace); err != nil {
		return nil, errors.Wrapf(err, "scene: could not decode %s", FaceBuffer)
	}
	if sc.MaterialList, err = decodeList[Material](b.Materials, SizeofMaterial); err != nil {
		return nil, errors.Wrapf(err, "scene: could not decode %s", MaterialBuffer)
	}
	if sc.BvhNodeList, err = decodeList[BvhNode](b.BvhNodes, SizeofBvhNode); err != nil {
		return nil, errors.Wrapf(err, "scene: could not decode %s", BvhNodeBuffer)
	}
	if sc.ModelList, err = decodeList[ModelInfo](b.ModelInfos, SizeofModelInfo); err != nil {
		return nil, errors.Wrapf(err, "scene: could not decode %s", ModelInfoBuffer)
	}
	if sc.SphereList, err = decodeList[Sphere](b.Spheres, SizeofSphere); err != nil {
		return nil, errors.Wrapf(err, "scene: could not decode %s", SphereBuffer)
	}

	return sc, nil
}

func encodeList(data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeList[T any](data []byte, stride int) ([]T, error) {
	if len(data)%stride != 0 {
		return nil, errors.Errorf("buffer length %d is not a multiple of the record size %d", len(data), stride)
	}

	if len(data) == 0 {
		return nil, nil
	}

	out := make([]T, len(data)/stride)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}
