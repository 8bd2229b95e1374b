package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chemstack/formulant/internal/model"
)

var enrichOut string

var enrichCmd = &cobra.Command{
	Use:   "enrich FILE",
	Short: "Enrich a single formula from a JSON file",
	Long:  "Reads a JSON array of {cas, conc} components, enriches it against PubChem, and prints the result. Use '-' to read from stdin.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return eris.Wrap(err, "read formula file")
		}

		var formula []model.RawComponent
		if err := json.Unmarshal(data, &formula); err != nil {
			return eris.Wrap(err, "parse formula: expected a JSON array of {cas, conc}")
		}
		for i, rc := range formula {
			if rc.CAS == "" {
				return eris.Errorf("component %d missing cas field", i)
			}
		}

		env, err := initApp("none")
		if err != nil {
			return err
		}
		defer env.Close()

		result := env.Enricher.Enrich(cmd.Context(), formula)

		for _, a := range result.Anomalies {
			zap.L().Warn("anomaly",
				zap.String("cas", a.CAS),
				zap.String("stage", string(a.Stage)),
				zap.String("kind", a.Kind),
				zap.String("detail", a.Detail),
			)
		}

		out := os.Stdout
		if enrichOut != "" {
			f, err := os.Create(enrichOut)
			if err != nil {
				return eris.Wrap(err, "create output file")
			}
			defer f.Close()
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Components); err != nil {
			return eris.Wrap(err, "encode result")
		}
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVarP(&enrichOut, "out", "o", "", "write enriched formula to file instead of stdout")
	rootCmd.AddCommand(enrichCmd)
}
