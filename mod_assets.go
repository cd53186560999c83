package crowd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
)

type AssetId string

type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

type MeshAsset struct {
	Name       string
	Vertices   []Vertex
	Indices    []uint32
	IndexStart uint32
	BaseVertex int32
}

type MaterialAsset struct {
	Name          string
	ShaderName    string
	ShaderListing string
	Properties    map[string]float32
}

// AnimationAssets names the assets of one animation type, in type order.
type AnimationAssets struct {
	Name     string
	Mesh     AssetId
	Material AssetId
}

type AssetServer struct {
	meshes    map[AssetId]MeshAsset
	materials map[AssetId]MaterialAsset
}

type AssetServerModule struct{}

func NewAssetServer() *AssetServer {
	return &AssetServer{
		meshes:    make(map[AssetId]MeshAsset),
		materials: make(map[AssetId]MaterialAsset),
	}
}

func (AssetServerModule) Install(app *App, cmd *Commands) {
	app.addResources(NewAssetServer())
}

func (server *AssetServer) LoadMesh(name string, vertices []Vertex, indices []uint32) AssetId {
	id := makeAssetId()

	server.meshes[id] = MeshAsset{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
	}

	return id
}

func (server *AssetServer) LoadMaterial(name string, shaderName string, shaderListing string, properties map[string]float32) AssetId {
	id := makeAssetId()

	props := make(map[string]float32, len(properties))
	for k, v := range properties {
		props[k] = v
	}
	server.materials[id] = MaterialAsset{
		Name:          name,
		ShaderName:    shaderName,
		ShaderListing: shaderListing,
		Properties:    props,
	}

	return id
}

func (server *AssetServer) Mesh(id AssetId) (MeshAsset, bool) {
	m, ok := server.meshes[id]
	return m, ok
}

func (server *AssetServer) Material(id AssetId) (MaterialAsset, bool) {
	m, ok := server.materials[id]
	return m, ok
}

// LoadManifest creates one mesh and one material per manifest entry. shaderSource
// resolves a manifest shader path to WGSL; an empty path yields the default listing.
func (server *AssetServer) LoadManifest(manifest *AnimationManifest, shaderSource func(path string) (string, error)) ([]AnimationAssets, error) {
	if len(manifest.Animations) == 0 {
		return nil, ErrNoAnimations
	}

	out := make([]AnimationAssets, 0, len(manifest.Animations))
	for i, spec := range manifest.Animations {
		vertices, indices, err := proceduralMesh(spec.Mesh)
		if err != nil {
			return nil, fmt.Errorf("animation %d (%s): %w", i, spec.Name, err)
		}
		listing, err := shaderSource(spec.Material.Shader)
		if err != nil {
			return nil, fmt.Errorf("animation %d (%s): shader: %w", i, spec.Name, err)
		}
		if _, ok := spec.Material.Properties[PropertyAnimationLength]; !ok {
			return nil, fmt.Errorf("animation %d (%s): material has no %s property", i, spec.Name, PropertyAnimationLength)
		}
		tint, err := materialTint(spec.Material.Color, i, len(manifest.Animations))
		if err != nil {
			return nil, fmt.Errorf("animation %d (%s): %w", i, spec.Name, err)
		}

		props := map[string]float32{
			PropertyTintR: float32(tint.R),
			PropertyTintG: float32(tint.G),
			PropertyTintB: float32(tint.B),
		}
		for k, v := range spec.Material.Properties {
			props[k] = v
		}

		out = append(out, AnimationAssets{
			Name:     spec.Name,
			Mesh:     server.LoadMesh(spec.Name, vertices, indices),
			Material: server.LoadMaterial(spec.Name, spec.Material.Shader, listing, props),
		})
	}
	return out, nil
}

// materialTint parses a hex colour. Without one, types get evenly spaced hues so
// buckets are told apart on screen.
func materialTint(hex string, index, count int) (colorful.Color, error) {
	if hex != "" {
		c, err := colorful.Hex(hex)
		if err != nil {
			return colorful.Color{}, fmt.Errorf("material color %q: %w", hex, err)
		}
		return c, nil
	}
	return colorful.Hsv(360*float64(index)/float64(max(count, 1)), 0.55, 0.85), nil
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}
