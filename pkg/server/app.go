package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"StockSeq/internal/domain/models"
	"StockSeq/internal/services/inference"
	"StockSeq/internal/usecase"
	"StockSeq/pkg/config"
	xhttp "StockSeq/pkg/http"
	applogger "StockSeq/pkg/logger"
)

// Commands understood by Run.
const (
	CmdAcquire  = "acquire"
	CmdFeatures = "features"
	CmdDataset  = "dataset"
	CmdPredict  = "predict"
	CmdStatus   = "status"
	CmdFull     = "full"
	CmdServe    = "serve"
)

// Commands lists every command in help order.
var Commands = []string{CmdAcquire, CmdFeatures, CmdDataset, CmdPredict, CmdStatus, CmdFull, CmdServe}

// ErrIncomplete is returned when a phase finished but some symbols failed.
var ErrIncomplete = errors.New("phase finished with failed symbols")

// Phases groups the use cases behind the commands.
type Phases struct {
	Acquirer  *usecase.Acquirer
	Features  *usecase.FeatureBuilder
	Datasets  *usecase.DatasetBuilder
	Predictor *usecase.Predictor
	Status    *usecase.QuotaStatus
	Pipeline  *usecase.Pipeline
}

// App encapsulates the command surface and the optional HTTP server.
type App struct {
	cfg    *config.Config
	l      *applogger.Logger
	phases Phases
	srv    *xhttp.Server
	out    io.Writer
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, phases Phases, srv *xhttp.Server) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, l: l, phases: phases, srv: srv, out: os.Stdout}
}

// SetOutput redirects the human-readable command output.
func (a *App) SetOutput(w io.Writer) { a.out = w }

// Run executes one command. With no symbols the configured set is used.
func (a *App) Run(ctx context.Context, command string, symbols []string) error {
	if len(symbols) == 0 {
		symbols = a.cfg.Provider.Symbols
	}
	a.l.Debug("command start", applogger.String("command", command), applogger.Strings("symbols", symbols))

	switch command {
	case CmdAcquire:
		return a.single(a.phases.Acquirer.Run(ctx, symbols))
	case CmdFeatures:
		return a.single(a.phases.Features.Run(ctx, symbols))
	case CmdDataset:
		return a.single(a.phases.Datasets.Run(ctx, symbols))
	case CmdPredict:
		return a.predict(ctx, symbols)
	case CmdStatus:
		return a.phases.Status.Write(ctx, a.out)
	case CmdFull:
		reports, err := a.phases.Pipeline.Run(ctx, symbols)
		for _, r := range reports {
			a.printReport(r)
		}
		if err != nil {
			return err
		}
		return incomplete(reports...)
	case CmdServe:
		return a.Serve(ctx)
	default:
		return fmt.Errorf("unknown command %q (want one of %s)", command, strings.Join(Commands, ", "))
	}
}

func (a *App) single(r *models.BatchReport, err error) error {
	if err != nil {
		return err
	}
	a.printReport(r)
	return incomplete(r)
}

func (a *App) predict(ctx context.Context, symbols []string) error {
	r, preds, err := a.phases.Predictor.Run(ctx, symbols)
	if r != nil {
		a.printReport(r)
	}
	if len(preds) > 0 {
		if werr := inference.WriteTable(a.out, preds); werr != nil {
			a.l.Warn("write prediction table", applogger.Error(werr))
		}
	}
	if err != nil {
		return err
	}
	return incomplete(r)
}

// Serve runs the quota/metrics HTTP server until ctx is cancelled or the
// listener fails.
func (a *App) Serve(ctx context.Context) error {
	if a.srv == nil {
		return errors.New("http server not configured")
	}
	errCh := a.srv.Start()
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.l.Info("shutdown signal received")
	}
	return a.srv.Stop(context.Background())
}

func (a *App) printReport(r *models.BatchReport) {
	fmt.Fprintf(a.out, "%s: %d/%d succeeded (run %s)\n", r.Phase, len(r.Succeeded), r.Total, r.RunID)
	for _, f := range r.Failed {
		fmt.Fprintf(a.out, "  %-12s %-18s %s\n", f.Symbol, f.Kind, f.Reason)
	}
}

func incomplete(reports ...*models.BatchReport) error {
	var failed []string
	for _, r := range reports {
		if r != nil && !r.OK() {
			failed = append(failed, r.Phase)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(failed, ", "))
	}
	return nil
}
