package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joelkehle/vehicle-advisor/internal/advisor"
	"github.com/joelkehle/vehicle-advisor/internal/config"
	"github.com/joelkehle/vehicle-advisor/internal/httpapi"
	"github.com/joelkehle/vehicle-advisor/internal/logger"
	"github.com/joelkehle/vehicle-advisor/internal/metrics"
	"github.com/joelkehle/vehicle-advisor/internal/report"
	"github.com/joelkehle/vehicle-advisor/internal/telemetry"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var configPath string
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "vehicle-advisor",
		Short:         "Used vehicle pricing, safety and negotiation advisor",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := logger.Init(loaded.Log.Level, loaded.Log.File, loaded.Log.JSON); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			cfg = loaded
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")

	root.AddCommand(newServeCmd(&cfg))
	root.AddCommand(newAnalyzeCmd(&cfg))
	root.AddCommand(newVersionCmd())
	return root
}

func newServeCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, *cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName, version)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	m := metrics.New()
	svc := buildService(ctx, cfg, m)
	srv := &http.Server{
		Addr:              ":" + strings.TrimPrefix(cfg.Server.Port, ":"),
		Handler:           httpapi.NewServer(svc, m),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Infof("vehicle-advisor listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

func newAnalyzeCmd(cfg **config.Config) *cobra.Command {
	var (
		zip        string
		mileage    int
		format     string
		chromePath string
	)
	cmd := &cobra.Command{
		Use:   "analyze VIN",
		Short: "Evaluate one vehicle and print a report",
		Long: `Decode the VIN, price it against nearby listings, gather NHTSA safety data
and build a negotiation plan.
Example: vehicle-advisor analyze 1HGCM82633A004352 --zip 94105 --mileage 42000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := buildService(cmd.Context(), *cfg, nil)
			adv, err := svc.Advise(cmd.Context(), args[0], zip, mileage)
			if err != nil {
				return err
			}
			if chromePath == "" {
				chromePath = (*cfg).Report.ChromePath
			}
			return writeAdvice(cmd, adv, format, report.NewPDFRenderer(chromePath, (*cfg).Report.PDFTimeout))
		},
	}
	cmd.Flags().StringVar(&zip, "zip", "", "ZIP code to search around")
	cmd.Flags().IntVar(&mileage, "mileage", 0, "odometer reading in miles")
	cmd.Flags().StringVar(&format, "format", "markdown", "output format: markdown, html, json or pdf")
	cmd.Flags().StringVar(&chromePath, "chrome-path", "", "Chrome/Chromium executable for pdf output")
	_ = cmd.MarkFlagRequired("zip")
	_ = cmd.MarkFlagRequired("mileage")
	return cmd
}

// pdfPrinter turns a built report into PDF bytes.
type pdfPrinter interface {
	Render(ctx context.Context, rep report.Report, title string) ([]byte, error)
}

func writeAdvice(cmd *cobra.Command, adv advisor.Advice, format string, printer pdfPrinter) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(adv)
	}
	r, err := report.Build(report.Input{
		Vehicle:   adv.Vehicle,
		Analysis:  adv.Analysis,
		Safety:    &adv.Safety,
		Strategy:  &adv.Strategy,
		Generated: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	switch format {
	case "markdown", "md":
		_, err = fmt.Fprint(out, r.Markdown)
	case "html":
		_, err = fmt.Fprint(out, r.HTML)
	case "pdf":
		if printer == nil {
			return errors.New("pdf output is not available")
		}
		pdf, perr := printer.Render(cmd.Context(), r, "Vehicle Purchase Report: "+adv.Vehicle.Description())
		if perr != nil {
			return perr
		}
		_, err = out.Write(pdf)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Show version information",
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vehicle-advisor %s\n", version)
		},
	}
}
