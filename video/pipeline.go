package video

import (
	"context"
	"image"
	"time"

	log "github.com/sirupsen/logrus"

	"livecam/metrics"
	"livecam/trigger"
	"livecam/video/decode"
	"livecam/video/process"
	"livecam/video/sink"
	"livecam/video/source"
)

// FPSListener receives every frame rate sample.
type FPSListener interface {
	FPSSample(fps float64, tier process.Tier)
}

// Mirror receives a copy of the display after every frame, such as an MJPEG
// stream. Idle mirrors are skipped.
type Mirror interface {
	Idle() bool
	Put(img image.Image)
}

// Pipeline is the live view main loop and everything it owns. It is created
// once at startup and runs on a single goroutine; only Request is shared with
// other goroutines.
type Pipeline struct {
	Source     source.Source
	Decoder    decode.Decoder
	Sink       sink.TileSink
	Compositor *sink.Compositor

	FPS     *process.FPS
	Badge   *process.Badge
	Status  *process.Status
	ShowFPS bool

	Request *trigger.Request
	Still   *StillCapture

	Mirror    Mirror
	Listeners []FPSListener

	banner process.BannerView

	now func() time.Time
}

// PipelineOptions wires a Pipeline.
type PipelineOptions struct {
	Source     source.Source
	Decoder    decode.Decoder
	Compositor *sink.Compositor
	Store      Store
	Request    *trigger.Request

	LiveView, Still source.Profile

	// MaxBufferBytes caps the frame buffer. Zero means unlimited.
	MaxBufferBytes int

	FPSWindow  int
	BannerTime time.Duration
}

func NewPipeline(o PipelineOptions) *Pipeline {
	status := process.NewStatus(o.BannerTime)
	size := image.Pt(o.LiveView.Width, o.LiveView.Height)
	return &Pipeline{
		Source:     o.Source,
		Decoder:    o.Decoder,
		Sink:       sink.NewTileSink(o.Compositor, size, o.MaxBufferBytes),
		Compositor: o.Compositor,
		FPS:        process.NewFPS(o.FPSWindow, time.Now()),
		Badge:      process.NewBadge(),
		Status:     status,
		ShowFPS:    true,
		Request:    o.Request,
		Still:      NewStillCapture(o.Source, o.Store, status, o.LiveView, o.Still),
		now:        time.Now,
	}
}

// Run loops until ctx is done.
func (p *Pipeline) Run(ctx context.Context) error {
	log.Infof("Live view started")
	for {
		if err := p.Step(ctx); err != nil {
			return err
		}
	}
}

// Step runs one loop iteration: a pending capture request first, then one
// live view frame. It only returns an error once ctx is done.
func (p *Pipeline) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Request != nil && p.Request.Take() {
		p.Still.Capture(ctx)
		p.Request.Done()
	}
	if !p.Still.Recover() {
		metrics.FramesSkipped.WithLabelValues("profile").Inc()
		time.Sleep(time.Millisecond)
		return nil
	}

	frame, err := p.Source.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		metrics.FramesSkipped.WithLabelValues("acquire").Inc()
		log.Debugf("No frame: %v", err)
		time.Sleep(time.Millisecond)
		return nil
	}
	if !p.present(frame) {
		return nil
	}
	p.overlay()
	p.mirror()

	if fps, ok := p.FPS.Tick(p.now()); ok {
		tier := process.TierOf(fps)
		metrics.FPS.Set(fps)
		log.Debugf("%.1f fps (%v)", fps, tier)
		for _, l := range p.Listeners {
			l.FPSSample(fps, tier)
		}
	}
	return nil
}

// present decodes and displays f, releasing it on every path.
func (p *Pipeline) present(f *source.Frame) bool {
	defer f.Release()

	sess, err := p.Decoder.Begin(f.Data)
	if err != nil {
		metrics.FramesSkipped.WithLabelValues("decode").Inc()
		log.Debugf("Skipping frame: %v", err)
		return false
	}
	st, err := sink.Assemble(sess, p.Sink)
	if st.Dropped > 0 {
		metrics.TilesDropped.Add(float64(st.Dropped))
		log.Debugf("Dropped %d of %d tiles for %v frame", st.Dropped, st.Tiles, st.Size)
	}
	if err != nil {
		metrics.FramesSkipped.WithLabelValues("display").Inc()
		log.Debugf("Display push failed: %v", err)
		return false
	}
	metrics.FramesPresented.Inc()
	return true
}

// overlay draws the FPS badge and any active banner over the presented frame.
func (p *Pipeline) overlay() {
	if p.ShowFPS && p.FPS.Last() > 0 {
		if err := p.Compositor.Overlay(p.Badge.Render(p.FPS.Last())); err != nil {
			log.Debugf("FPS badge push failed: %v", err)
		}
	}
	if b, ok := p.Status.Active(); ok {
		if err := p.Compositor.Overlay(p.banner.Render(b, p.Compositor.Display.Size())); err != nil {
			log.Debugf("Banner push failed: %v", err)
		}
	}
}

func (p *Pipeline) mirror() {
	if p.Mirror == nil || p.Mirror.Idle() {
		return
	}
	if s, ok := p.Compositor.Display.(sink.Snapshotter); ok {
		p.Mirror.Put(s.Snapshot())
	}
}
