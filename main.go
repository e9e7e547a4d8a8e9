package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"vkquad/assets"
	"vkquad/renderer"
	"vkquad/session"
	"vkquad/window"

	units "github.com/docker/go-units"
	"github.com/xlab/closer"
)

func init() {
	// This is needed to arrange that main() runs on main thread.
	// See documentation for functions that are only allowed to be called
	// from the main thread.
	runtime.LockOSThread()

	flag.BoolVar(&args.debug, "debug", false, "Enable Vulkan validation layers")
	flag.IntVar(&args.resolution, "resolution", window.DefaultResolution,
		"Index of the starting window resolution, R cycles through them")
	flag.StringVar(&args.shaders, "shaders", "shaders/compiled",
		"Directory with the compiled SPIR-V shaders")
	flag.StringVar(&args.texture, "texture", "",
		"Image file to draw on the quad, the embedded texture when empty")
	flag.StringVar(&args.model, "model", "",
		"Wavefront OBJ file to draw instead of the quad")
	flag.StringVar(&args.staging, "staging", "16MiB", "Size of the upload staging buffer")
	flag.IntVar(&args.frames, "frames", 0, "Close the window after this many frames, 0 is unlimited")
	flag.BoolVar(&args.spin, "spin", false, "Rotate the quad")
	flag.BoolVar(&args.fps, "fps", false, "Show the frame rate in the window title, F toggles it")
	flag.BoolVar(&args.devices, "devices", false, "Print the available physical devices and exit")
}

var args struct {
	debug      bool
	resolution int
	shaders    string
	texture    string
	model      string
	staging    string
	frames     int
	spin       bool
	fps        bool
	devices    bool
}

const title = "vkquad"

func main() {
	flag.Parse()
	defer closer.Close()

	sess := session.New(nil)
	if !args.devices {
		closer.Bind(func() {
			fmt.Println()
			fmt.Print(sess.Summary())
		})
	}

	if err := run(sess); err != nil {
		closer.Fatalln("ERROR:", err)
	}
}

func run(sess *session.Session) error {
	stagingSize, err := units.RAMInBytes(args.staging)
	if err != nil {
		return fmt.Errorf("parsing -staging: %w", err)
	}
	if stagingSize <= 0 {
		return fmt.Errorf("-staging must be positive, got %q", args.staging)
	}

	win, err := window.New(window.Options{
		Title:      title,
		Resolution: args.resolution,
		ShowFPS:    args.fps,
	})
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer win.Destroy()

	log.Printf("Window created at %s\n", win.Resolution())

	if args.devices {
		table, err := renderer.ListDevices(win.Handle(), args.debug)
		if err != nil {
			return fmt.Errorf("listing devices: %w", err)
		}
		fmt.Println(table)
		return nil
	}

	bundle, err := assets.Load(context.Background(), assets.Config{
		Shaders:     os.DirFS(args.shaders),
		ShaderDir:   ".",
		TexturePath: args.texture,
		ModelPath:   args.model,
	})
	if err != nil {
		return fmt.Errorf("loading assets: %w", err)
	}

	rend, err := renderer.New(renderer.Options{
		AppName:     title,
		Debug:       args.debug,
		Window:      win.Handle(),
		Bundle:      bundle,
		StagingSize: uint64(stagingSize),
		Spin:        args.spin,
		ClearColor:  [4]float32{0, 0, 0, 0},
	})
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	defer rend.Close()

	log.Printf("Renderer created.\n")

	if err := mainLoop(win, rend, sess); err != nil {
		return err
	}

	return rend.WaitIdle()
}

func mainLoop(win *window.Window, rend *renderer.Renderer, sess *session.Session) error {
	log.Printf("main loop!\n")

	var (
		stepper  = session.NewStepper(session.UpdateStep)
		last     = time.Now()
		rendered int
		shownFPS = -1.0
	)

	for !win.ShouldClose() {
		win.PollEvents()

		if win.Minimized() {
			win.WaitEvents()
			last = time.Now()
			continue
		}

		if win.ConsumeResized() {
			rend.MarkResized()
		}

		now := time.Now()
		for steps := stepper.Advance(now.Sub(last)); steps > 0; steps-- {
			sess.Update(stepper.Step)
		}
		last = now

		if win.ShowFPS() {
			if fps := sess.FPS(); fps != shownFPS {
				win.SetFPS(fps)
				shownFPS = fps
			}
		} else {
			shownFPS = -1
		}

		sess.Render()
		if err := rend.DrawFrame(); err != nil {
			if errors.Is(err, renderer.ErrMinimized) {
				win.WaitEvents()
				continue
			}
			return fmt.Errorf("error drawing a frame: %w", err)
		}

		if args.frames > 0 {
			rendered++
			if rendered >= args.frames {
				win.Close()
			}
		}
	}

	return nil
}
