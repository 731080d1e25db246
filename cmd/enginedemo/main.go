// Command enginedemo wires the engine core to a real window: it boots an
// Engine, opens an hostsdl.Device for video/input, optionally raises an
// hostui stats window, and drives the main loop. Grounded on the teacher's
// cmd/emulator/main.go (flag-based config, -log gating a ring-buffered
// logger, a banner of startup info before entering the run loop).
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"vb-engine-core/internal/engine"
	"vb-engine-core/internal/engtrace"
	"vb-engine-core/internal/fixedpoint"
	"vb-engine-core/internal/hostsdl"
	"vb-engine-core/internal/hostui"
	"vb-engine-core/internal/streaming"
)

func main() {
	fps := flag.Int("fps", 50, "Target frame rate: 50 or 25")
	scale := flag.Int("scale", 2, "Display scale (1-6)")
	enableLogging := flag.Bool("log", false, "Enable the ring-buffered diagnostic logger")
	forceSync := flag.Bool("force-sync", false, "Skip straight to the next frame on overrun instead of trailing behind")
	showStats := flag.Bool("stats", false, "Open a stats window reporting frame overruns and pool occupancy")
	flag.Parse()

	if *fps != 50 && *fps != 25 {
		fmt.Fprintln(os.Stderr, "Error: -fps must be 50 or 25")
		os.Exit(1)
	}
	if *scale < 1 || *scale > 6 {
		fmt.Fprintln(os.Stderr, "Error: -scale must be between 1 and 6")
		os.Exit(1)
	}

	var logger *engtrace.Logger
	if *enableLogging {
		logger = engtrace.NewLogger(10000)
		for _, s := range []engtrace.Subsystem{
			engtrace.SubsystemPool, engtrace.SubsystemMessaging, engtrace.SubsystemGraphics,
			engtrace.SubsystemPhysics, engtrace.SubsystemCollision, engtrace.SubsystemSound,
			engtrace.SubsystemStreaming, engtrace.SubsystemVIP, engtrace.SubsystemCamera,
		} {
			logger.SetSubsystemEnabled(s, true)
		}
		logger.SetMinLevel(engtrace.LevelDebug)
	}

	physicsFPS := *fps
	cfg := engine.Config{
		TargetFPS:    *fps,
		PhysicsFPS:   physicsFPS,
		Gravity:      fixedpoint.Vector3D{Y: fixedpoint.FromInt13(-1)},
		ForceVIPSync: *forceSync,
		LoadPad:      fixedpoint.Vector3D{X: fixedpoint.FromInt13(64), Y: fixedpoint.FromInt13(64), Z: fixedpoint.FromInt13(64)},
		UnloadPad:    fixedpoint.Vector3D{X: fixedpoint.FromInt13(96), Y: fixedpoint.FromInt13(96), Z: fixedpoint.FromInt13(96)},
		Logger:       logger,
		FatalHandler: func(err error) {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		},
	}

	factory := streaming.NewFactory()
	eng, err := engine.New(cfg, factory)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building engine: %v\n", err)
		os.Exit(1)
	}

	device, err := hostsdl.NewDevice("vb-engine-core", 384, 224, *scale)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating display: %v\n", err)
		os.Exit(1)
	}
	defer device.Close()

	var stats *hostui.StatsWindow
	if *showStats {
		stats = hostui.NewStatsWindow(eng.VIP, eng.Pools, eng.Sprites)
		stats.Show()
		defer stats.Close()
	}

	fmt.Println("vb-engine-core demo")
	fmt.Println("===================")
	fmt.Printf("Target FPS: %d\n", *fps)
	fmt.Printf("Display scale: %dx\n", *scale)
	fmt.Printf("Force VIP sync: %v\n", *forceSync)
	fmt.Println("\nControls: WASD/arrows - D-pad, Z/X/V/C - A/B/X/Y, Q/E - L/R, Return - Start, Backspace - Z")
	fmt.Println("Ctrl+C to quit")

	eng.Timer.Start()

	frameInterval := time.Duration(1000/float64(*fps)*1000) * time.Microsecond
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for range ticker.C {
		in := hostsdl.PollInput()
		eng.ProcessUserInput(in)

		eng.RunFrame()

		if err := device.Present(eng.VRAM, eng.CameraEffects.Current()); err != nil {
			fmt.Fprintf(os.Stderr, "Error presenting frame: %v\n", err)
			return
		}
		if stats != nil {
			stats.Refresh()
		}
	}
}
