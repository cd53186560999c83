package crowd

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

func proceduralMesh(spec MeshSpec) ([]Vertex, []uint32, error) {
	size := mgl32.Vec3(spec.Size)
	if size == (mgl32.Vec3{}) {
		size = mgl32.Vec3{1, 1, 1}
	}
	switch spec.Shape {
	case "box", "":
		v, i := BoxMesh(size)
		return v, i, nil
	case "pyramid":
		v, i := PyramidMesh(size.X(), size.Y())
		return v, i, nil
	case "quad":
		v, i := QuadMesh(size.X(), size.Y())
		return v, i, nil
	default:
		return nil, nil, fmt.Errorf("unknown mesh shape %q", spec.Shape)
	}
}

// BoxMesh builds an axis-aligned box centred on the origin with per-face normals.
func BoxMesh(size mgl32.Vec3) ([]Vertex, []uint32) {
	h := size.Mul(0.5)
	faces := []struct {
		normal mgl32.Vec3
		u, v   mgl32.Vec3
	}{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	}

	vertices := make([]Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	scale := func(v mgl32.Vec3) mgl32.Vec3 {
		return mgl32.Vec3{v.X() * h.X(), v.Y() * h.Y(), v.Z() * h.Z()}
	}
	for _, f := range faces {
		base := uint32(len(vertices))
		for _, c := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := f.normal.Add(f.u.Mul(c[0])).Add(f.v.Mul(c[1]))
			vertices = append(vertices, Vertex{Position: scale(p), Normal: f.normal})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}

// PyramidMesh builds a square pyramid standing on the XZ plane.
func PyramidMesh(base, height float32) ([]Vertex, []uint32) {
	b := base * 0.5
	apex := mgl32.Vec3{0, height, 0}
	corners := [4]mgl32.Vec3{{-b, 0, b}, {b, 0, b}, {b, 0, -b}, {-b, 0, -b}}

	vertices := make([]Vertex, 0, 16)
	indices := make([]uint32, 0, 18)
	for i := range corners {
		a, c := corners[i], corners[(i+1)%4]
		n := c.Sub(a).Cross(apex.Sub(a)).Normalize()
		start := uint32(len(vertices))
		vertices = append(vertices,
			Vertex{Position: a, Normal: n},
			Vertex{Position: c, Normal: n},
			Vertex{Position: apex, Normal: n},
		)
		indices = append(indices, start, start+1, start+2)
	}
	down := mgl32.Vec3{0, -1, 0}
	start := uint32(len(vertices))
	for i := 3; i >= 0; i-- {
		vertices = append(vertices, Vertex{Position: corners[i], Normal: down})
	}
	indices = append(indices, start, start+1, start+2, start, start+2, start+3)
	return vertices, indices
}

// QuadMesh builds a quad in the XY plane facing +Z.
func QuadMesh(width, height float32) ([]Vertex, []uint32) {
	w, h := width*0.5, height*0.5
	n := [3]float32{0, 0, 1}
	vertices := []Vertex{
		{Position: [3]float32{-w, -h, 0}, Normal: n},
		{Position: [3]float32{w, -h, 0}, Normal: n},
		{Position: [3]float32{w, h, 0}, Normal: n},
		{Position: [3]float32{-w, h, 0}, Normal: n},
	}
	return vertices, []uint32{0, 1, 2, 0, 2, 3}
}
