package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/idom/internal/errors"
	"github.com/vango-dev/idom/internal/preview"
	"github.com/vango-dev/idom/internal/script"
	"github.com/vango-dev/idom/internal/watcher"
)

func serveCmd(a *app) *cobra.Command {
	var (
		addr string
		step time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve <script.yaml>",
		Short: "Preview a render script in the browser",
		Long: `Start a preview server for a render script.

The browser receives every mutation frame over a websocket and applies it
to its own DOM. Saving the script reruns it from the start.

Examples:
  idom serve list.yaml
  idom serve list.yaml --addr=0.0.0.0:8080
  idom serve list.yaml --step=500ms`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Serve.Addr = addr
			}
			return a.serve(cmd.Context(), cmd.OutOrStdout(), args[0], step)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from idom.yaml)")
	cmd.Flags().DurationVar(&step, "step", 0, "Delay between passes, to watch them apply")
	return cmd
}

func (a *app) serve(ctx context.Context, out io.Writer, path string, step time.Duration) error {
	ctx, stop := signal.NotifyContext(orBackground(ctx), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := script.Load(path)
	if err != nil {
		return err
	}

	in := a.instruments()
	cfg := preview.Config{
		Addr:    a.cfg.Serve.Addr,
		Title:   path,
		RootTag: s.RootTag,
		Logger:  a.logger,
	}
	if in.registry != nil {
		cfg.Gatherer = prometheus.Gatherers{in.registry, prometheus.DefaultGatherer}
		cfg.Frames = in.metrics
	}
	srv := preview.New(cfg)

	p := &previewRun{app: a, srv: srv, in: in, out: out, path: path, step: step}
	p.run(ctx, s)

	w, err := a.startWatcher(ctx, path, func([]watcher.ChangeEvent) error {
		s, err := script.Load(path)
		if err != nil {
			errors.Print(out, err)
			srv.PublishError(err)
			return nil
		}
		p.run(ctx, s)
		return nil
	})
	if err != nil {
		return err
	}
	defer w.Stop()

	success(out, "Preview at http://%s", a.cfg.Serve.Addr)
	if err := srv.ListenAndServe(ctx); err != nil {
		return errors.New("E163").Wrap(err)
	}
	return nil
}

// previewRun runs scripts into the preview server.
type previewRun struct {
	app  *app
	srv  *preview.Server
	in   *instruments
	out  io.Writer
	path string
	step time.Duration
}

func (p *previewRun) run(ctx context.Context, s *script.Script) {
	r, err := script.NewRunner(s, script.Options{
		Logger: p.app.logger,
		Hooks:  p.in.hooks,
		Debug:  p.app.cfg.Debug,
	})
	if err != nil {
		errors.Print(p.out, err)
		p.srv.PublishError(err)
		return
	}

	opts := p.app.renderOptions()
	p.srv.Reset(r.Bootstrap())
	p.srv.SetHTML(r.HTML(opts))

	for i := range s.Passes {
		if i > 0 && p.step > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.step):
			}
		}
		res := r.RunPass(ctx, i)
		printResult(p.out, res)
		p.srv.Publish(res.Frame, r.HTML(opts))
		if res.Err != nil {
			errors.Print(p.out, res.Err)
			p.srv.PublishError(fmt.Errorf("%s: %w", res.Name, res.Err))
		}
	}
}
