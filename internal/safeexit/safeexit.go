// Package safeexit runs registered shutdown hooks when the process is
// asked to stop.
package safeexit

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
)

type SafeExit struct {
	mu    sync.Mutex
	funcs []func()
	done  bool
	log   logrus.FieldLogger
	exit  func(code int)
}

func New(log logrus.FieldLogger) *SafeExit {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SafeExit{log: log.WithField("component", "safeexit"), exit: os.Exit}
}

// Register adds f to the hooks. Hooks run in registration order.
func (s *SafeExit) Register(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funcs = append(s.funcs, f)
}

// Run calls every hook once. Later calls do nothing.
func (s *SafeExit) Run() {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	funcs := s.funcs
	s.mu.Unlock()

	for _, f := range funcs {
		f()
	}
}

// Listen runs the hooks and exits on SIGHUP, SIGINT, SIGTERM or SIGQUIT.
func (s *SafeExit) Listen() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		sig := <-sigs
		s.log.Infof("received %s, shutting down", sig)
		s.Run()
		s.exit(0)
	}()
}
