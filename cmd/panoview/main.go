// Command panoview streams a tiled panorama headlessly while slowly panning the camera,
// and logs streaming statistics until the duration elapses or it is interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine"
	"github.com/Carmen-Shannon/oxy-pano/engine/camera"
	"github.com/Carmen-Shannon/oxy-pano/engine/config"
)

func main() {
	configPath := flag.String("config", "panorama.yaml", "path to the YAML configuration")
	duration := flag.Duration("duration", 10*time.Second, "how long to run, 0 to run until interrupted")
	panSpeed := flag.Float64("pan-speed", 0.3, "camera pan speed in radians per second")
	debug := flag.Bool("debug", false, "log every tile event")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	common.SetLogger(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	options, err := cfg.EngineOptions()
	if err != nil {
		log.Fatalf("Failed to configure engine: %v", err)
	}
	options = append(options,
		engine.WithLogger(logger),
		engine.WithCameraControllerOptions(camera.WithPanSpeed(*panSpeed)),
	)

	eng, err := engine.NewEngine(options...)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.SetPanorama(ctx, cfg.TiledPanorama()); err != nil {
		log.Fatalf("Failed to set panorama: %v", err)
	}

	go func() {
		if *duration > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(*duration):
			}
		} else {
			<-ctx.Done()
		}
		eng.Quit()
	}()

	logger.Info("streaming panorama", "config", *configPath, "duration", *duration, "pan_speed", *panSpeed)
	eng.Run()

	logger.Info("done", "frames", eng.Renderer().FrameCount())
}
