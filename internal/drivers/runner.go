package drivers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"smtdump/internal/config"
	"smtdump/internal/inspect"
	"smtdump/internal/report"
	"smtdump/internal/sink"
)

// Output is one emitted report.
type Output struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	ID       string `json:"id"`
	Text     string `json:"report"`
	Chunks   int    `json:"chunks"`
	DumpPath string `json:"dump_path,omitempty"`
	DumpErr  error  `json:"-"`
}

// Runner generates reports against Host and hands them to Sink. It is safe
// for concurrent use; emissions never interleave.
type Runner struct {
	Host   inspect.Host
	Sink   *sink.Sink
	Config *config.Config
	Logger *zap.Logger
	Now    func() time.Time

	mu sync.Mutex // serializes emission
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Runner) env() Env {
	env := Env{Host: r.Host, Config: r.Config}
	if r.Now != nil {
		env.Now = r.Now()
	}
	return env
}

// Run generates and emits one report. An unknown name is the only error.
func (r *Runner) Run(name string) (Output, error) {
	d, ok := Lookup(name)
	if !ok {
		return Output{}, fmt.Errorf("unknown report %q (valid: %s)", name, strings.Join(Names(), ", "))
	}
	rep := d.Generate(r.env())

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.emit(d, rep), nil
}

// RunAll generates every report concurrently, then emits them one after
// another in registry order so their log entries never interleave.
func (r *Runner) RunAll(ctx context.Context) ([]Output, error) {
	all := All()
	reports := make([]*report.Report, len(all))
	env := r.env()

	g, ctx := errgroup.WithContext(ctx)
	for i, d := range all {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = d.Generate(env)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	outs := make([]Output, 0, len(all))
	for i, d := range all {
		outs = append(outs, r.emit(d, reports[i]))
	}
	return outs, nil
}

func (r *Runner) emit(d Driver, rep *report.Report) Output {
	id := uuid.NewString()
	text := rep.Finalize()

	s := r.Sink
	if s == nil {
		s = &sink.Sink{}
	}
	res := s.Emit(id, text)
	r.logger().Debug("report emitted",
		zap.String("name", d.Name),
		zap.String("report", id),
		zap.Int("chunks", res.Chunks),
	)
	return Output{
		Name:     d.Name,
		Title:    d.Title,
		ID:       id,
		Text:     text,
		Chunks:   res.Chunks,
		DumpPath: res.DumpPath,
		DumpErr:  res.DumpErr,
	}
}
