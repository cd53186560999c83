package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/gekko3d/crowd"
	"github.com/gekko3d/crowd/gpu"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func printBanner(cfg *crowd.Config, animations []crowd.AnimationAssets) {
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render("CROWD")
	lines := []string{
		fmt.Sprintf("instances   %d", cfg.Population.Instances),
		fmt.Sprintf("bound size  %.0f", cfg.Population.BoundSize),
		fmt.Sprintf("batch size  %d", cfg.Jobs.BatchSize),
	}
	for i, a := range animations {
		lines = append(lines, fmt.Sprintf("type %d      %s", i, a.Name))
	}
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	fmt.Println(lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(head + "\n" + body))
}

func run() error {
	// 1. Config and logger
	cfgPath := "assets/crowd.toml"
	if p := os.Getenv("CROWD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := crowd.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := crowd.NewDefaultLogger("crowd", cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 2. Animation assets
	manifestPath := cfg.Assets.Manifest
	manifest, err := crowd.LoadAnimationManifest(manifestPath)
	if err != nil {
		return err
	}
	assets := crowd.NewAssetServer()
	animations, err := assets.LoadManifest(manifest, shaderLoader(filepath.Dir(manifestPath)))
	if err != nil {
		return fmt.Errorf("load animations: %w", err)
	}
	printBanner(cfg, animations)

	// 3. Window and device
	window, err := gpu.NewWindow(cfg.Window)
	if err != nil {
		return err
	}
	defer window.Destroy()

	backend, err := gpu.NewBackend(window, cfg.Window.VSync, log)
	if err != nil {
		return fmt.Errorf("init gpu: %w", err)
	}
	defer backend.Release()

	meshes, release, err := realize(backend, assets, animations)
	if err != nil {
		return err
	}
	defer release()

	// 4. Render set
	store := crowd.NewAnimationStore(cfg.Population.Instances)
	seed := cfg.Population.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	crowd.PopulateRandom(store, cfg.Population.Instances, len(meshes), cfg.Population.BoundSize, rand.New(rand.NewSource(seed)))
	log.Infof("spawned %d instances over %d animation types (seed %d)", store.Count(), len(meshes), seed)

	// 5. App
	app := crowd.NewApp()
	app.Commands().AddResources(log, store)
	app.UseModules(
		crowd.TimeModule{Config: cfg.Time},
		gpu.Module{
			Window:  window,
			Backend: backend,
			Camera:  gpu.DefaultOrbitCamera(cfg.Population.BoundSize),
		},
		crowd.TransformModule{},
		crowd.AnimationInstancingModule{
			Animations: meshes,
			Jobs:       cfg.Jobs,
			Capacity:   cfg.Population.Instances,
		},
		reportModule{Interval: time.Second},
	)

	if cfg.Population.MaxLifetime > 0 {
		app.UseModules(crowd.LifecycleModule{
			MinLifetime: cfg.Population.MinLifetime,
			MaxLifetime: cfg.Population.MaxLifetime,
			BoundSize:   cfg.Population.BoundSize,
			Types:       len(meshes),
			Seed:        seed,
		})
	}

	pipeline, _ := crowd.Resource[crowd.FramePipeline](app)
	defer pipeline.Release()

	runErr := app.Run()
	log.Infof("stopped after %d frames, %d device buffers live before release", app.Frame(), backend.LiveBuffers())
	return runErr
}

// shaderLoader resolves manifest shader paths against dir. An empty path selects
// the built-in crowd shader.
func shaderLoader(dir string) func(string) (string, error) {
	return func(path string) (string, error) {
		if path == "" {
			return "", nil
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// realize uploads every animation's mesh and material. The returned func releases
// them.
func realize(backend *gpu.Backend, assets *crowd.AssetServer, animations []crowd.AnimationAssets) ([]crowd.AnimationMesh, func(), error) {
	var (
		meshes    []*gpu.Mesh
		materials []*gpu.Material
	)
	release := func() {
		for _, m := range materials {
			m.Release()
		}
		for _, m := range meshes {
			m.Release()
		}
	}

	out := make([]crowd.AnimationMesh, 0, len(animations))
	for _, a := range animations {
		meshAsset, ok := assets.Mesh(a.Mesh)
		if !ok {
			release()
			return nil, nil, fmt.Errorf("animation %s: mesh %s not loaded", a.Name, a.Mesh)
		}
		materialAsset, ok := assets.Material(a.Material)
		if !ok {
			release()
			return nil, nil, fmt.Errorf("animation %s: material %s not loaded", a.Name, a.Material)
		}

		mesh, err := backend.CreateMesh(meshAsset)
		if err != nil {
			release()
			return nil, nil, err
		}
		meshes = append(meshes, mesh)

		material, err := backend.CreateMaterial(materialAsset)
		if err != nil {
			release()
			return nil, nil, err
		}
		materials = append(materials, material)

		out = append(out, crowd.AnimationMesh{Name: a.Name, Mesh: mesh, Material: material})
	}
	return out, release, nil
}
