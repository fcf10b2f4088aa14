package task

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	applog "github.com/elpatron68/side-launcher/internal/log"
	"github.com/elpatron68/side-launcher/internal/telemetry"
)

// Source yields the raw task records of one configuration origin.
type Source interface {
	Name() string
	Read(ctx context.Context) ([]Definition, error)
}

// Resolution is the outcome of one resolution pass. Errors lists the
// sources that contributed nothing because they failed; it never aborts
// the pass.
type Resolution struct {
	Tasks  []Definition
	Errors []SourceError
}

// Resolver reads its sources in order and merges them.
type Resolver struct {
	sources []Source
	help    Definition
	logger  applog.Logger
	tracer  trace.Tracer
}

// NewResolver returns a resolver over sources in precedence order. help is
// the task returned when every source is empty.
func NewResolver(help Definition, sources []Source, logger applog.Logger) *Resolver {
	return &Resolver{
		sources: sources,
		help:    help,
		logger:  applog.OrNop(logger),
		tracer:  telemetry.Tracer("github.com/elpatron68/side-launcher/task"),
	}
}

// Sources returns the source names in precedence order.
func (r *Resolver) Sources() []string {
	names := make([]string, 0, len(r.sources))
	for _, s := range r.sources {
		names = append(names, s.Name())
	}
	return names
}

// Resolve runs one pass. It is safe to call concurrently; each call has its
// own merger.
func (r *Resolver) Resolve(ctx context.Context) Resolution {
	ctx, span := r.tracer.Start(ctx, "tasks.resolve",
		trace.WithAttributes(attribute.Int("sources.count", len(r.sources))))
	defer span.End()

	m := NewMerger()
	var res Resolution
	for _, src := range r.sources {
		batch, err := r.readOne(ctx, src)
		if err != nil {
			res.Errors = append(res.Errors, SourceError{Source: src.Name(), Err: err})
			if errors.Is(err, ErrSourceMissing) {
				r.logger.Debug("%s: not present", src.Name())
			} else {
				r.logger.Warn("%s: skipped: %v", src.Name(), err)
			}
			continue
		}
		added := m.Add(batch)
		r.logger.Info("%s: loaded %d task(s), %d new", src.Name(), len(batch), added)
	}
	res.Tasks = m.Tasks(r.help)
	r.logger.Info("resolved %d task(s)", len(res.Tasks))
	span.SetAttributes(
		attribute.Int("tasks.count", len(res.Tasks)),
		attribute.Int("sources.failed", len(res.Errors)),
	)
	return res
}

// readOne isolates a single source, including a panicking one.
func (r *Resolver) readOne(ctx context.Context, src Source) (defs []Definition, err error) {
	defer func() {
		if p := recover(); p != nil {
			defs, err = nil, fmt.Errorf("source panicked: %v", p)
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return src.Read(ctx)
}
