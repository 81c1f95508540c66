package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"3tcapital/ms_comprobantes_sri/internal/infrastructure/config"
	"3tcapital/ms_comprobantes_sri/internal/infrastructure/logger"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=...".
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "comprobantes",
		Short: "Extrae registros contables de comprobantes electrónicos del SRI",
		Long: `comprobantes normaliza facturas, notas de crédito, liquidaciones de compra
y comprobantes de retención del SRI (XML) en registros contables y genera el
reporte Excel de compras, retenciones y gastos personales.

Ejemplos:
  comprobantes serve                                # API HTTP
  comprobantes procesar ./xml --salida reporte.xlsx # carpeta de XML a Excel
  comprobantes aprender maestro.xlsx                # enseñar categorías
  comprobantes descargar --archivo claves.txt       # descargar desde el SRI`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Registra en nivel debug")

	root.AddCommand(
		newServeCmd(),
		newProcesarCmd(opts),
		newAprenderCmd(opts),
		newDescargarCmd(opts),
		newVersionCmd(),
	)
	return root
}

// loadCLI loads configuration and builds a logger that writes to stderr so
// stdout stays free for command output.
func loadCLI(cmd *cobra.Command, opts *rootOptions) (config.AppConfig, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	level := cfg.Log.Level
	if opts.verbose {
		level = "debug"
	}
	return cfg, logger.NewWithWriter(cmd.ErrOrStderr(), cfg.App.Name, level, cfg.App.Environment), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Muestra la versión",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "comprobantes %s (build %s)\n", version, buildDate)
}
