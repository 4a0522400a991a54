package main

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/born-ml/siamese/internal/nn"
)

// layerDocs describes the built-in layers for the layers command.
var layerDocs = map[string][3]string{
	nn.SiameseLabelsType:      {"2", "1", "1.0 where both bottoms hold equal values"},
	nn.EuclideanDistType:      {"2", "1", "squared distance of paired samples"},
	nn.L2NormalizationType:    {"1", "1", "scale each sample to unit L2 norm"},
	nn.DiscriminativeLossType: {"3", "1", "logistic pair loss (params: margin, tau)"},
}

// LayersHandler prints the registered layer types.
func LayersHandler(cmd *cobra.Command, args []string) error {
	var data [][]string
	for _, t := range nn.Types() {
		doc, ok := layerDocs[t]
		if !ok {
			doc = [3]string{"-", "-", ""}
		}
		data = append(data, []string{t, doc[0], doc[1], doc[2]})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"TYPE", "BOTTOMS", "TOPS", "DESCRIPTION"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
	return nil
}

func newLayersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "List registered layer types",
		Args:  cobra.NoArgs,
		RunE:  LayersHandler,
	}
}
