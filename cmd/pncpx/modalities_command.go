package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"pncpx/internal/pncp"
)

func newModalitiesCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "modalities",
		Short:       "List contracting modality codes",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			codes := make([]int, 0, len(pncp.Modalities))
			for code := range pncp.Modalities {
				codes = append(codes, code)
			}
			sort.Ints(codes)

			if asJSON {
				entries := make([]map[string]any, 0, len(codes))
				for _, code := range codes {
					entries = append(entries, map[string]any{
						"code": code,
						"name": pncp.Modalities[code],
					})
				}
				return writeJSON(cmd, entries)
			}

			rows := make([][]string, 0, len(codes))
			for _, code := range codes {
				rows = append(rows, []string{strconv.Itoa(code), pncp.Modalities[code]})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Code", "Modality"}, rows, 1))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}
