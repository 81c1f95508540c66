package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"3tcapital/ms_comprobantes_sri/internal/adapters/excel"
)

func newAprenderCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "aprender <maestro.xlsx>",
		Short: "Aprende categorías desde un Excel maestro",
		Long: `aprender lee la primera hoja del Excel maestro (columnas NOMBRE, DETALLE y
MEMO), actualiza la memoria contable y la guarda.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadCLI(cmd, root)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, err := excel.ReadMaestro(f)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			learned := a.memoria.Learn(rows)
			if err := a.memoria.Persist(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Aprendidas %d empresas (total %d)\n", learned, a.memoria.Len())
			return nil
		},
	}
}
