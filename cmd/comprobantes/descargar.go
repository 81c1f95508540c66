package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newDescargarCmd(root *rootOptions) *cobra.Command {
	out := &outputOptions{}
	var archivo string

	cmd := &cobra.Command{
		Use:   "descargar [clave]...",
		Short: "Descarga comprobantes autorizados del SRI por clave de acceso",
		Long: `descargar consulta el servicio de autorización del SRI por cada clave de
acceso (argumentos o --archivo, una por línea) y extrae los comprobantes
autorizados. Las claves inválidas o no autorizadas se reportan como fallidas.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			claves, err := readClaves(args, archivo)
			if err != nil {
				return err
			}
			if len(claves) == 0 {
				return errors.New("indique al menos una clave de acceso")
			}

			cfg, log, err := loadCLI(cmd, root)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.service.ProcessClaves(cmd.Context(), claves)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), result, out)
		},
	}
	cmd.Flags().StringVarP(&archivo, "archivo", "f", "", "Archivo con una clave de acceso por línea")
	out.bind(cmd)
	return cmd
}
