package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/claytonlovin/Botinho/internal/cli"
	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List completed assessments",
	Long: `Prints the assessment results kept in the configured store. With
--identity the full result of one student is printed as JSON.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, _ := cmd.Flags().GetString("identity")

		stores, err := cli.OpenStores(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer stores.Close()

		if identity != "" {
			res, err := stores.Results.LoadResult(cmd.Context(), identity)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		all, err := stores.Results.ListResults(cmd.Context())
		if err != nil {
			return err
		}
		return printResults(cmd, all)
	},
}

func printResults(cmd *cobra.Command, results []*domain.AssessmentResult) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IDENTITY\tLEVEL\tAVERAGE\tFINISHED\tDURATION")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			r.Identity, r.Level, r.AverageScore,
			r.FinishedAt.Format(time.DateTime), r.Duration.Round(time.Second))
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.Flags().String("identity", "", "Print the result of a single identity")
}
