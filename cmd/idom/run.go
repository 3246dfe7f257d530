package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/vango-dev/idom/internal/errors"
	"github.com/vango-dev/idom/internal/script"
	"github.com/vango-dev/idom/internal/watcher"
	"github.com/vango-dev/idom/pkg/idom"
	"github.com/vango-dev/idom/pkg/livetree"
	"github.com/vango-dev/idom/pkg/protocol"
	"github.com/vango-dev/idom/pkg/telemetry"
)

type runOptions struct {
	diff    bool
	frames  string
	metrics bool
	watch   bool
	pretty  bool
	keys    bool
}

func runCmd(a *app) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Run every pass of a render script",
		Long: `Run every pass of a render script against one live tree and print the
mutation counts of each pass, followed by the resulting HTML.

A pass that fails is reported and the following passes still run.

Examples:
  idom run list.yaml
  idom run list.yaml --diff
  idom run list.yaml --frames list.bin
  idom run list.yaml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("pretty") {
				a.cfg.Output.Pretty = opts.pretty
			}
			if cmd.Flags().Changed("keys") {
				a.cfg.Output.Keys = opts.keys
			}
			if cmd.Flags().Changed("diff") {
				a.cfg.Output.Diff = opts.diff
			}
			if cmd.Flags().Changed("metrics") {
				a.cfg.Metrics.Enabled = opts.metrics
			}

			out := cmd.OutOrStdout()
			if !opts.watch {
				return a.runScript(cmd.Context(), out, args[0], opts.frames)
			}
			return a.watchScript(cmd.Context(), out, args[0], opts.frames)
		},
	}

	cmd.Flags().BoolVar(&opts.diff, "diff", false, "Show the HTML changes of each pass")
	cmd.Flags().StringVar(&opts.frames, "frames", "", "Write the encoded mutation frames to this file")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Print engine metrics after the run")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Rerun when the script changes")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Print indented HTML")
	cmd.Flags().BoolVar(&opts.keys, "keys", false, "Render keys as key attributes")
	return cmd
}

// instruments are the hooks built from the configuration.
type instruments struct {
	registry *prometheus.Registry
	metrics  *telemetry.Metrics
	hooks    []idom.Hooks
}

func (a *app) instruments() *instruments {
	in := &instruments{}
	if a.cfg.Metrics.Enabled {
		in.registry = prometheus.NewRegistry()
		in.metrics = telemetry.NewMetrics(
			telemetry.WithRegistry(in.registry),
			telemetry.WithNamespace(a.cfg.Metrics.Namespace),
		)
		in.hooks = append(in.hooks, in.metrics)
	}
	if a.cfg.Tracing.Enabled {
		in.hooks = append(in.hooks, telemetry.NewTracing(telemetry.WithTracerName(a.cfg.Tracing.TracerName)))
	}
	return in
}

func (a *app) renderOptions() livetree.RenderOptions {
	return livetree.RenderOptions{
		Pretty: a.cfg.Output.Pretty || a.cfg.Output.Diff,
		Indent: a.cfg.Output.Indent,
		Keys:   a.cfg.Output.Keys,
	}
}

// runScript runs every pass of the script at path, printing to out.
func (a *app) runScript(ctx context.Context, out io.Writer, path, framesPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := script.Load(path)
	if err != nil {
		return err
	}

	in := a.instruments()
	r, err := script.NewRunner(s, script.Options{
		Logger: a.logger,
		Hooks:  in.hooks,
		Debug:  a.cfg.Debug,
	})
	if err != nil {
		return err
	}

	var frames *frameWriter
	if framesPath != "" {
		if frames, err = createFrameWriter(framesPath, in.metrics); err != nil {
			return err
		}
		defer frames.Close()
		if err := frames.Write(r.Bootstrap()); err != nil {
			return err
		}
	}

	opts := a.renderOptions()
	prev := r.HTML(opts)
	failed := 0

	for i := range s.Passes {
		res := r.RunPass(ctx, i)
		printResult(out, res)
		if res.Err != nil {
			failed++
			errors.Print(out, res.Err)
		}
		if err := frames.Write(res.Frame); err != nil {
			return err
		}

		html := r.HTML(opts)
		if a.cfg.Output.Diff {
			printDiff(out, prev, html)
		}
		prev = html
	}

	if !a.cfg.Output.Diff {
		fmt.Fprintln(out)
		fmt.Fprint(out, prev)
		if !opts.Pretty {
			fmt.Fprintln(out)
		}
	}
	if in.registry != nil {
		fmt.Fprintln(out)
		printMetrics(out, in.registry)
	}
	if frames != nil {
		if err := frames.Close(); err != nil {
			return err
		}
		success(out, "Wrote %d frames to %s", frames.count, framesPath)
	}

	if failed > 0 {
		return errors.Newf(errors.CategoryScript, "%d of %d passes failed", failed, len(s.Passes))
	}
	return nil
}

// watchScript runs the script, then again whenever it changes, until
// interrupted.
func (a *app) watchScript(ctx context.Context, out io.Writer, path, framesPath string) error {
	ctx, stop := signal.NotifyContext(orBackground(ctx), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rerun := func() {
		if err := a.runScript(ctx, out, path, framesPath); err != nil {
			errors.Print(out, err)
		}
	}
	rerun()

	w, err := a.startWatcher(ctx, path, func(events []watcher.ChangeEvent) error {
		fmt.Fprintf(out, "\n%s\n", faint(fmt.Sprintf("%s %s, rerunning", events[0].Path, events[0].Type)))
		rerun()
		return nil
	})
	if err != nil {
		return err
	}
	defer w.Stop()

	fmt.Fprintln(out, faint("Watching "+path+" (Ctrl+C to stop)"))
	<-ctx.Done()
	return nil
}

// startWatcher watches the script and the config file.
func (a *app) startWatcher(ctx context.Context, path string, handler watcher.Handler) (*watcher.Watcher, error) {
	w, err := watcher.New(a.cfg.Watch.Debounce, a.logger)
	if err != nil {
		return nil, errors.New("E162").Wrap(err)
	}
	files := []string{path}
	if p := a.cfg.Path(); p != "" {
		files = append(files, p)
	}
	for _, f := range files {
		if err := w.AddFile(f); err != nil {
			_ = w.Stop()
			return nil, errors.New("E162").Wrap(err)
		}
	}
	w.AddFilter(watcher.NoTempFilter)
	w.AddHandler(handler)
	w.Start(ctx)
	return w, nil
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func printResult(out io.Writer, res script.Result) {
	st := res.Stats
	line := fmt.Sprintf("%s: %d created, %d moved, %d removed, %d attrs set, %d attrs removed, %d texts %s",
		res.Name, st.Created, st.Moved, st.Removed, st.AttrSets, st.AttrDels, st.Texts,
		faint(fmt.Sprintf("(%s)", st.Duration.Round(time.Microsecond))))
	if res.Nested > 0 {
		line += fmt.Sprintf(", %d nested", res.Nested)
	}
	if res.Err != nil {
		failure(out, "%s", line)
		return
	}
	success(out, "%s", line)
}

// printDiff prints a line diff of two pretty-printed trees.
func printDiff(out io.Writer, before, after string) {
	if before == after {
		fmt.Fprintln(out, faint("  (no changes)"))
		return
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			line = strings.TrimSuffix(line, "\n")
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				fmt.Fprintln(out, green("+ "+line))
			case diffmatchpatch.DiffDelete:
				fmt.Fprintln(out, redX("- "+line))
			default:
				fmt.Fprintln(out, faint("  "+line))
			}
		}
	}
}

// printMetrics prints the counters and histogram counts of reg.
func printMetrics(out io.Writer, reg prometheus.Gatherer) {
	families, err := reg.Gather()
	if err != nil {
		warn(out, "gathering metrics: %v", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName() + formatLabels(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				fmt.Fprintf(out, "  %s %g\n", name, m.GetCounter().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				fmt.Fprintf(out, "  %s count=%d sum=%g\n", name, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}

// frameWriter appends length-prefixed frames to a file.
type frameWriter struct {
	f       *os.File
	metrics *telemetry.Metrics
	count   int
	closed  bool
}

func createFrameWriter(path string, metrics *telemetry.Metrics) (*frameWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.New("E161").Wrap(err)
	}
	return &frameWriter{f: f, metrics: metrics}, nil
}

// Write writes frame. A nil writer or frame is a no-op.
func (w *frameWriter) Write(frame *protocol.Frame) error {
	if w == nil || frame == nil {
		return nil
	}
	if err := protocol.WriteFrame(w.f, frame); err != nil {
		return errors.New("E161").Wrap(err)
	}
	if w.metrics != nil {
		w.metrics.RecordFrame(len(protocol.EncodeFrame(frame)))
	}
	w.count++
	return nil
}

func (w *frameWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.f.Close(); err != nil {
		return errors.New("E161").Wrap(err)
	}
	return nil
}
