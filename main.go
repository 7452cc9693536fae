package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	log "github.com/sirupsen/logrus"

	"livecam/config"
	"livecam/metrics"
	"livecam/serve"
	"livecam/trigger"
	"livecam/video"
	"livecam/video/decode"
	"livecam/video/process"
	"livecam/video/sink"
	"livecam/video/source"
)

var (
	configPath = flag.String("config", "", "Path to JSON config file. Defaults are used if empty.")
	port       = flag.Int("port", 0, "Port for the debug web surface. Overrides the config file.")
	verbose    = flag.Bool("v", false, "Enable debug logging.")
)

func profile(name string, p config.Profile) source.Profile {
	return source.Profile{Name: name, Width: p.Width, Height: p.Height, Quality: p.Quality}
}

func openDisplay(c *config.Config, req *trigger.Request) (sink.Display, error) {
	size := image.Pt(c.Display.Width, c.Display.Height)
	switch c.Display.Backend {
	case "fbdev":
		return sink.OpenFBDev(c.Display.Device, size)
	case "window":
		return openWindow(size, req)
	}
	return sink.NewFramebuffer(size), nil
}

func openSource(c *config.Config) (source.Source, error) {
	live := profile("live", c.LiveView)
	if c.Source == "files" {
		return source.OpenFiles(c.ReplayDir, c.ReplayInterval(), live)
	}
	return source.OpenWebcam(c.Device, live)
}

// halt shows err on the display and waits to be stopped.
func halt(ctx context.Context, comp *sink.Compositor, err error) {
	log.Errorf("Sensor initialization failed: %v", err)
	st := process.NewStatus(0)
	st.Show(process.BannerError, "Camera error")
	if b, ok := st.Active(); ok {
		comp.Overlay(process.RenderBanner(b, comp.Display.Size()))
	}
	<-ctx.Done()
}

func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	c, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		c.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := uuid.New().String()
	log.WithField("session", session).Infof("Starting livecam")

	req := trigger.NewRequest(c.Debounce())

	display, err := openDisplay(c, req)
	if err != nil {
		log.Fatalf("Failed to open %v display: %v", c.Display.Backend, err)
	}
	defer display.Close()
	comp := sink.NewCompositor(display)

	src, err := openSource(c)
	if err != nil {
		halt(ctx, comp, err)
		display.Close()
		os.Exit(1)
	}
	defer src.Close()

	store := video.NewPhotoStore(c.PhotoBasePath, c.PhotoDir)
	store.RequireMount = c.RequireMount
	if err := store.Watch(ctx); err != nil {
		log.Warnf("Storage watcher unavailable, probing on demand: %v", err)
	}

	p := video.NewPipeline(video.PipelineOptions{
		Source:         src,
		Decoder:        decode.JPEG{},
		Compositor:     comp,
		Store:          store,
		Request:        req,
		LiveView:       src.Profile(),
		Still:          profile("still", c.Still),
		MaxBufferBytes: c.MaxBufferBytes,
		FPSWindow:      c.FPSWindow,
		BannerTime:     c.BannerTime(),
	})
	p.ShowFPS = c.ShowFPS
	p.Still.SetSeq(store.LastSeq())
	log.Infof("Photo numbering continues after #%d", p.Still.Seq())

	events := serve.NewEventUpdater()
	defer events.Close()
	p.Listeners = append(p.Listeners, events)
	p.Still.Listeners = append(p.Still.Listeners, events)

	thumbs := video.NewThumbnailProducer()
	defer thumbs.Close()
	p.Still.Listeners = append(p.Still.Listeners, thumbs)

	if c.JournalDSN != "" {
		j, err := video.OpenJournal(c.JournalDSN, session)
		if err != nil {
			log.Errorf("Capture journal disabled: %v", err)
		} else {
			defer j.Close()
			p.Still.Listeners = append(p.Still.Listeners, j)
		}
	}

	mjpegServer := sink.NewMJPEGServer()
	msdisplay := mjpegServer.NewStream(sink.MJPEGID{Name: "display"})
	defer msdisplay.Close()
	p.Mirror = msdisplay

	trigger.WatchSignals(ctx, req)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/mjpeg", mjpegServer)
		mux.Handle("/trigger", &trigger.Handler{Request: req})
		mux.Handle("/eventsws", events)
		mux.Handle("/photo", &serve.PhotoServer{Store: store})
		mux.Handle("/thumb", &serve.PhotoServer{Store: store, Thumb: true})
		mux.Handle("/photos", &serve.PhotoListServer{Store: store})
		mux.Handle("/metrics", metrics.Handler())
		mux.Handle("/debug/", http.DefaultServeMux)
		log.Infof("Hosting web surface on port %d", c.Port)
		err := http.ListenAndServe(fmt.Sprintf(":%d", c.Port), handlers.LoggingHandler(log.StandardLogger().Writer(), mux))
		log.Errorf("Web surface stopped: %v", err)
	}()

	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("Pipeline stopped: %v", err)
	}
	log.Infof("Shutting down")
}
