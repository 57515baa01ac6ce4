package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

const DefaultShutdownTimeout = 15 * time.Second

type Component interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type namedComponent struct {
	name      string
	component Component
}

// Runtime starts components in registration order and stops them in reverse.
type Runtime struct {
	components      []namedComponent
	shutdownTimeout time.Duration
}

func NewRuntime() *Runtime {
	return &Runtime{shutdownTimeout: DefaultShutdownTimeout}
}

// Register adds a component. Nil components are skipped, so optional parts can be passed as is.
func (r *Runtime) Register(name string, component Component) {
	if component == nil {
		return
	}
	r.components = append(r.components, namedComponent{name: name, component: component})
}

func (r *Runtime) Start(ctx context.Context) error {
	started := make([]namedComponent, 0, len(r.components))
	for _, c := range r.components {
		if err := c.component.Start(ctx); err != nil {
			_ = stopComponents(ctx, started)
			return fmt.Errorf("start %s: %w", c.name, err)
		}
		r.getLogEntry().WithField("component", c.name).Debug("started")
		started = append(started, c)
	}
	return nil
}

func (r *Runtime) Stop(ctx context.Context) error {
	return stopComponents(ctx, r.components)
}

// Run starts every component, blocks in serve and then stops the components with a fresh
// shutdown deadline, since ctx is usually done by then.
func (r *Runtime) Run(ctx context.Context, serve func(ctx context.Context) error) error {
	if err := r.Start(ctx); err != nil {
		return err
	}
	serveErr := serve(ctx)

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.shutdownTimeout)
	defer cancel()
	return errors.Join(serveErr, r.Stop(stopCtx))
}

func stopComponents(ctx context.Context, components []namedComponent) error {
	var stopErr error
	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		if err := c.component.Stop(ctx); err != nil {
			stopErr = errors.Join(stopErr, fmt.Errorf("stop %s: %w", c.name, err))
			continue
		}
		log.WithFields(log.Fields{"object": "Runtime", "component": c.name}).Debug("stopped")
	}
	return stopErr
}

func (r *Runtime) getLogEntry() *log.Entry {
	return log.WithField("object", "Runtime")
}
