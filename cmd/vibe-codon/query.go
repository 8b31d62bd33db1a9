package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-codon/internal/duckdb"
)

func newQueryCmd() *cobra.Command {
	var gene, transcript, variant string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Search effects stored by annotate --db",
		Example: `  vibe-codon query --db effects.duckdb --gene KRAS
  vibe-codon query --db effects.duckdb --transcript ENST00000311936
  vibe-codon query --db effects.duckdb --variant 12:25245350:C:A`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, gene, transcript, variant)
		},
	}

	cmd.Flags().StringVar(&gene, "gene", "", "gene symbol")
	cmd.Flags().StringVar(&transcript, "transcript", "", "transcript ID")
	cmd.Flags().StringVar(&variant, "variant", "", "variant as chrom:pos:ref:alt")
	cmd.MarkFlagsMutuallyExclusive("gene", "transcript", "variant")
	cmd.MarkFlagsOneRequired("gene", "transcript", "variant")

	return cmd
}

func runQuery(cmd *cobra.Command, gene, transcript, variant string) error {
	dbPath := viper.GetString(outputDBKey)
	if dbPath == "" {
		return errors.New("no database configured; pass --db or set output.db")
	}

	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var records []duckdb.EffectRecord
	switch {
	case gene != "":
		records, err = store.SearchByGene(gene)
	case transcript != "":
		records, err = store.SearchByTranscript(transcript)
	default:
		v, perr := parseVariantArg(variant)
		if perr != nil {
			return perr
		}
		records, err = store.LookupVariant(v.SequenceID, v.Start, v.Ref, v.Alt)
	}
	if err != nil {
		return err
	}

	renderRecords(cmd.OutOrStdout(), records)
	return nil
}

func renderRecords(w io.Writer, records []duckdb.EffectRecord) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Variant", "Gene", "Transcript", "Strand", "Codon", "Codons"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	for i := range records {
		r := &records[i]
		table.Append([]string{
			fmt.Sprintf("%s:%d:%s:%s", r.Chrom, r.Pos, r.Ref, r.Alt),
			r.GeneName,
			r.TranscriptID,
			r.Strand,
			strconv.FormatInt(r.CodonNum+1, 10),
			r.CodonChange(),
		})
	}

	table.SetFooter([]string{fmt.Sprintf("%d effects", len(records)), "", "", "", "", ""})
	table.Render()
}
