package trigger

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// WatchSignals forwards the given OS signals to r until ctx is done. With no
// signals listed, SIGUSR1 is used; it stands in for the momentary capture
// button on hosts where the button is wired through a GPIO daemon.
func WatchSignals(ctx context.Context, r *Request, sigs ...os.Signal) {
	if len(sigs) == 0 {
		sigs = []os.Signal{syscall.SIGUSR1}
	}
	c := make(chan os.Signal, 1)
	signal.Notify(c, sigs...)
	go func() {
		defer signal.Stop(c)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-c:
				if r.Signal() {
					log.Infof("Capture requested by %v", sig)
				} else {
					log.Debugf("Capture request from %v ignored", sig)
				}
			}
		}
	}()
}
