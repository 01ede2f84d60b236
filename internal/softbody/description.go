package softbody

import (
	"encoding/json"
	"math"

	"github.com/san-kum/morphrace/internal/dynamo"
)

// Description is the parsed mesh record consumed by New.
type Description struct {
	Nodes     []dynamo.Vec2
	Triangles [][3]int
}

// wireMesh is the on-disk mesh.json layout.
type wireMesh struct {
	Pos       [][]float64 `json:"pos"`
	Triangles [][]float64 `json:"triangles"`
}

// ParseDescription decodes a mesh record of the form
//
//	{"pos": [[x, y], ...], "triangles": [[a, b, c], ...]}
//
// Structural problems are reported as dynamo.ErrInvalidMeshData. Index range
// checks happen in New.
func ParseDescription(data []byte) (Description, error) {
	const op = "parse mesh"

	var w wireMesh
	if err := json.Unmarshal(data, &w); err != nil {
		return Description{}, dynamo.Errorf(op, dynamo.ErrInvalidMeshData, "%v", err)
	}

	desc := Description{
		Nodes:     make([]dynamo.Vec2, len(w.Pos)),
		Triangles: make([][3]int, len(w.Triangles)),
	}

	for i, p := range w.Pos {
		if len(p) != 2 {
			return Description{}, dynamo.Errorf(op, dynamo.ErrInvalidMeshData, "node %d has %d coordinates, want 2", i, len(p))
		}
		v := dynamo.Vec2{X: p[0], Y: p[1]}
		if !v.IsValid() {
			return Description{}, dynamo.Errorf(op, dynamo.ErrInvalidMeshData, "node %d is not finite", i)
		}
		desc.Nodes[i] = v
	}

	for i, tri := range w.Triangles {
		if len(tri) != 3 {
			return Description{}, dynamo.Errorf(op, dynamo.ErrInvalidMeshData, "triangle %d has %d indices, want 3", i, len(tri))
		}
		for j, f := range tri {
			if f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
				return Description{}, dynamo.Errorf(op, dynamo.ErrInvalidMeshData, "triangle %d index %v is not a node index", i, f)
			}
			desc.Triangles[i][j] = int(f)
		}
	}

	return desc, nil
}

// MarshalJSON writes the description back in mesh.json form.
func (d Description) MarshalJSON() ([]byte, error) {
	w := struct {
		Pos       [][2]float64 `json:"pos"`
		Triangles [][3]int     `json:"triangles"`
	}{
		Pos:       make([][2]float64, len(d.Nodes)),
		Triangles: d.Triangles,
	}
	for i, n := range d.Nodes {
		w.Pos[i] = [2]float64{n.X, n.Y}
	}
	return json.Marshal(w)
}
