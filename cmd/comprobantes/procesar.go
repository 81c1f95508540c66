package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"3tcapital/ms_comprobantes_sri/internal/adapters/excel"
	appcomprobante "3tcapital/ms_comprobantes_sri/internal/application/comprobante"
	"3tcapital/ms_comprobantes_sri/internal/core/comprobante"
)

// outputOptions select how a batch result is written.
type outputOptions struct {
	salida string
	json   bool
}

func (o *outputOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.salida, "salida", "o", "", "Escribe el reporte Excel en esta ruta")
	cmd.Flags().BoolVar(&o.json, "json", false, "Imprime el lote completo en JSON")
}

func newProcesarCmd(root *rootOptions) *cobra.Command {
	out := &outputOptions{}
	cmd := &cobra.Command{
		Use:   "procesar <archivo|carpeta>...",
		Short: "Extrae registros de archivos XML locales",
		Long: `procesar lee los comprobantes indicados. Las carpetas se recorren de forma
recursiva tomando los archivos .xml. Un documento ilegible se reporta como
fallido sin detener el lote.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadCLI(cmd, root)
			if err != nil {
				return err
			}

			uploads, err := collectUploads(args)
			if err != nil {
				return err
			}
			if len(uploads) == 0 {
				return errors.New("no se encontraron archivos XML")
			}

			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			result := a.service.ProcessBatch(cmd.Context(), uploads)
			return writeResult(cmd.OutOrStdout(), result, out)
		},
	}
	out.bind(cmd)
	return cmd
}

// collectUploads reads explicit files as given and walks directories for
// .xml files, in lexical order.
func collectUploads(paths []string) ([]comprobante.Upload, error) {
	var uploads []comprobante.Upload
	add := func(path string) error {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("leer %s: %w", path, err)
		}
		uploads = append(uploads, comprobante.Upload{Nombre: path, Contenido: content})
		return nil
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if err := add(p); err != nil {
				return nil, err
			}
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".xml") {
				return nil
			}
			return add(path)
		})
		if err != nil {
			return nil, err
		}
	}
	return uploads, nil
}

// readClaves returns the keys given as arguments plus those listed in file,
// one per line. Blank lines and lines starting with # are ignored.
func readClaves(args []string, file string) ([]string, error) {
	claves := append([]string(nil), args...)
	if file == "" {
		return claves, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		claves = append(claves, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("leer %s: %w", file, err)
	}
	return claves, nil
}

// writeResult writes the xlsx report when requested and then either the
// JSON batch or a summary to w.
func writeResult(w io.Writer, result appcomprobante.BatchResult, opts *outputOptions) error {
	if opts.salida != "" {
		if err := writeReportFile(opts.salida, result.Procesados); err != nil {
			return err
		}
	}

	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(w, "Lote:        %s\n", result.Lote)
	fmt.Fprintf(w, "Procesados:  %d\n", len(result.Procesados))
	fmt.Fprintf(w, "Fallidos:    %d\n", len(result.Fallidos))
	for _, f := range result.Fallidos {
		fmt.Fprintf(w, "  - %s: %s\n", f.Archivo, strings.Join(f.Errors, "; "))
	}
	if opts.salida != "" {
		fmt.Fprintf(w, "Reporte:     %s\n", opts.salida)
	}
	return nil
}

func writeReportFile(path string, records []comprobante.Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("crear reporte: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	return excel.WriteReport(f, records)
}
