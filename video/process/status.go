package process

import (
	"time"
)

// DefaultBannerTime is how long a banner stays on screen.
const DefaultBannerTime = 2 * time.Second

// BannerKind selects the banner styling.
type BannerKind int

const (
	BannerInfo BannerKind = iota
	BannerSuccess
	BannerError
)

// Banner is a short status message shown over the live view.
type Banner struct {
	Text    string
	Kind    BannerKind
	Expires time.Time
}

// Status holds the current banner. It is owned by the main loop.
type Status struct {
	Duration time.Duration

	banner Banner
	now    func() time.Time
}

func NewStatus(d time.Duration) *Status {
	if d <= 0 {
		d = DefaultBannerTime
	}
	return &Status{
		Duration: d,
		now:      time.Now,
	}
}

// Show replaces the current banner.
func (s *Status) Show(kind BannerKind, text string) {
	s.banner = Banner{
		Text:    text,
		Kind:    kind,
		Expires: s.now().Add(s.Duration),
	}
}

// Active returns the banner if it has not yet expired.
func (s *Status) Active() (Banner, bool) {
	if s.banner.Text == "" || !s.now().Before(s.banner.Expires) {
		return Banner{}, false
	}
	return s.banner, true
}
