// Command voxelcore-demo wires the six core components (chunk state,
// region store, save repository, chunk store, mesh pipeline, streaming
// scheduler) to a minimal glfw/go-gl window so the storage and meshing
// core can be driven end to end. Player movement/input and world
// generation quality are deliberately basic: this binary exists to
// exercise the core, not to be a game.
package main

import (
	"flag"
	"fmt"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/config"
	"voxelcore/internal/meshing"
	"voxelcore/internal/player"
	"voxelcore/internal/profiling"
	"voxelcore/internal/registry"
	"voxelcore/internal/render"
	"voxelcore/internal/save"
	"voxelcore/internal/world"
	"voxelcore/internal/worldgen"
)

const (
	winW = 1280
	winH = 720

	worldVersion       = "0.1.0"
	worldSchemaVersion = 1
)

func init() { runtime.LockOSThread() }

// meshBridge breaks the construction cycle between world.World (which
// needs a MeshScheduler/GPUTeardownQueue at construction) and
// meshing.Pipeline (which needs a *world.World at construction): the
// bridge is handed to World first and pointed at the pipeline once it
// exists.
type meshBridge struct {
	pipeline *meshing.Pipeline
}

func (b *meshBridge) Schedule(c *world.Chunk) {
	if b.pipeline != nil {
		b.pipeline.Schedule(c)
	}
}

func (b *meshBridge) QueueTeardown(c *world.Chunk) {
	if b.pipeline != nil {
		b.pipeline.QueueTeardown(c)
	}
}

func main() {
	saveDir := flag.String("save-dir", "./voxelcore-save", "save repository directory")
	seed := flag.Int64("seed", 1, "world generation seed")
	worldName := flag.String("world-name", "world", "world name recorded in world metadata")
	flag.Parse()

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	window, err := setupWindow()
	if err != nil {
		panic(fmt.Errorf("voxelcore-demo: create window: %w", err))
	}

	registry.InitRegistry()

	cfg := config.DefaultCoreConfig()

	repo, err := save.NewRepository(*saveDir)
	if err != nil {
		panic(fmt.Errorf("voxelcore-demo: open save repository: %w", err))
	}
	defer repo.Close()

	meta, existed, err := repo.LoadWorld()
	if err != nil {
		fmt.Printf("voxelcore-demo: failed to load world metadata, starting fresh: %v\n", err)
		existed = false
	}
	now := time.Now().Unix()
	if !existed {
		meta = &save.WorldMetadata{
			Name:          *worldName,
			Seed:          *seed,
			GeneratorName: "flat",
			CreatedAtUnix: now,
			Version:       worldVersion,
			SchemaVersion: worldSchemaVersion,
		}
	}
	meta.LastPlayedUnix = now

	gen := worldgen.NewFlatGenerator(meta.Seed)
	bridge := &meshBridge{}
	w := world.New(gen, repo, bridge, bridge, nil, cfg)
	defer w.Close()

	pipeline := meshing.NewPipeline(w, cfg)
	bridge.pipeline = pipeline
	defer pipeline.Shutdown(5 * time.Second)

	renderer, err := render.NewRenderer(winW, winH)
	if err != nil {
		panic(fmt.Errorf("voxelcore-demo: init renderer: %w", err))
	}
	defer renderer.Close()

	p := player.New(w, player.GameModeCreative)
	if loaded, ok, err := repo.LoadPlayer(); err == nil && ok {
		p.Restore(*loaded)
	}

	setupInput(window, p)

	sessionStart := time.Now()
	runLoop(window, w, pipeline, renderer, p, repo)

	meta.TotalPlaytimeMs += time.Since(sessionStart).Milliseconds()
	if err := repo.SaveWorld(*meta); err != nil {
		fmt.Printf("voxelcore-demo: failed to save world metadata on exit: %v\n", err)
	}
	if err := repo.SavePlayer(p.Snapshot()); err != nil {
		fmt.Printf("voxelcore-demo: failed to save player on exit: %v\n", err)
	}
	if err := repo.Flush(); err != nil {
		fmt.Printf("voxelcore-demo: failed to flush save repository on exit: %v\n", err)
	}
}

func setupWindow() (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(winW, winH, "voxelcore-demo", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return nil, err
	}
	glfw.SwapInterval(0)
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	return window, nil
}

func setupInput(window *glfw.Window, p *player.Player) {
	firstMouse := true
	var lastX, lastY float64

	window.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {
		if firstMouse {
			lastX, lastY = xpos, ypos
			firstMouse = false
		}
		xoff := (xpos - lastX) * 0.1
		yoff := (lastY - ypos) * 0.1
		lastX, lastY = xpos, ypos

		p.CamYaw += xoff
		p.CamPitch += yoff
		if p.CamPitch > 89 {
			p.CamPitch = 89
		}
		if p.CamPitch < -89 {
			p.CamPitch = -89
		}
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})
}

func runLoop(window *glfw.Window, w *world.World, pipeline *meshing.Pipeline, renderer *render.Renderer, p *player.Player, repo *save.Repository) {
	lastTime := time.Now()
	lastSave := time.Now()
	lastFrameDur := time.Duration(0)
	frames := 0
	lastFPSCheck := time.Now()

	for !window.ShouldClose() {
		profiling.ResetFrame()
		frameStart := time.Now()
		dt := frameStart.Sub(lastTime).Seconds()
		lastTime = frameStart

		func() { defer profiling.Track("player.handleMovement")(); handleMovement(window, p, dt) }()

		observer := world.ChunkOf(int32(p.Position.X()), int32(p.Position.Z()), world.ChunkSizeX)
		func() { defer profiling.Track("world.Tick")(); w.Tick(float64(p.Position.X()), float64(p.Position.Z())) }()
		pipeline.SetObserver(observer)

		func() {
			defer profiling.Track("meshing.ApplyPendingGpuUploads")()
			pipeline.ApplyPendingGpuUploads(lastFrameDur, render.Upload)
		}()
		func() { defer profiling.Track("meshing.ProcessGpuTeardown")(); pipeline.ProcessGpuTeardown(render.Teardown) }()

		width, height := window.GetSize()
		renderer.Resize(width, height)

		view := p.GetViewMatrix()
		proj := mgl32.Perspective(mgl32.DegToRad(70), float32(width)/float32(height), 0.1, 1000)

		func() {
			defer profiling.Track("render.Frame")()
			renderer.BeginFrame(view, proj)
			for _, coord := range w.Store().AllCoords() {
				if c := w.GetChunk(coord, false); c != nil {
					renderer.DrawChunk(c)
				}
			}
		}()

		window.SwapBuffers()
		glfw.PollEvents()

		frames++
		if time.Since(lastFPSCheck) >= time.Second {
			fmt.Printf("voxelcore-demo: %d fps, %d chunks loaded, %s\n", frames, w.Store().Len(), profiling.TopN(3))
			frames = 0
			lastFPSCheck = time.Now()
			pipeline.RequeueFailed()
		}

		if time.Since(lastSave) > 10*time.Second {
			if err := repo.Flush(); err != nil {
				fmt.Printf("voxelcore-demo: periodic flush failed: %v\n", err)
			}
			lastSave = time.Now()
		}

		lastFrameDur = time.Since(frameStart)
	}
}

func handleMovement(window *glfw.Window, p *player.Player, dt float64) {
	speed := float32(8.0 * dt)
	front := p.GetFrontVector()
	right := front.Cross(mgl32.Vec3{0, 1, 0}).Normalize()

	move := mgl32.Vec3{}
	if window.GetKey(glfw.KeyW) == glfw.Press {
		move = move.Add(front)
	}
	if window.GetKey(glfw.KeyS) == glfw.Press {
		move = move.Sub(front)
	}
	if window.GetKey(glfw.KeyA) == glfw.Press {
		move = move.Sub(right)
	}
	if window.GetKey(glfw.KeyD) == glfw.Press {
		move = move.Add(right)
	}
	if window.GetKey(glfw.KeySpace) == glfw.Press {
		move = move.Add(mgl32.Vec3{0, 1, 0})
	}
	if window.GetKey(glfw.KeyLeftShift) == glfw.Press {
		move = move.Sub(mgl32.Vec3{0, 1, 0})
	}
	if move.Len() > 0 {
		p.Position = p.Position.Add(move.Normalize().Mul(speed))
	}
}
