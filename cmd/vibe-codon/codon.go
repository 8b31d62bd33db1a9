package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-codon/internal/annotate"
	"github.com/inodb/vibe-codon/internal/genome"
	"github.com/inodb/vibe-codon/internal/output"
)

func newCodonCmd() *cobra.Command {
	var gene string

	cmd := &cobra.Command{
		Use:   "codon <chrom:pos:ref:alt>",
		Short: "Compute the codon change of a single variant",
		Long: `Compute the codon change of one variant, given as chrom:pos:ref:alt with a
1-based position and VCF-style alleles, on each overlapping protein-coding
transcript. Results are written in the annotate tab format.`,
		Example: `  vibe-codon codon 12:25245350:C:A
  vibe-codon codon chr7:140753336:A:T --gene BRAF
  vibe-codon codon 17:7674220:CA:C`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCodon(cmd, args[0], gene)
		},
	}

	cmd.Flags().StringVar(&gene, "gene", "", "only report transcripts of this gene")

	return cmd
}

// reGenomic matches chr12:25245350:C:A, 12-25245350-C-A and
// chr12:25245350:C>A. An empty alt denotes a deletion of the whole
// reference allele.
var reGenomic = regexp.MustCompile(`^(chr)?(\w+)[:\-](\d+)[:\-]([ACGTNacgtn]+)[>:\-/]([ACGTNacgtn]*)$`)

func parseVariantArg(s string) (*genome.Variant, error) {
	m := reGenomic.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, fmt.Errorf("variant %q: expected chrom:pos:ref:alt", s)
	}

	pos, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("variant %q: invalid position: %w", s, err)
	}

	return genome.NewVariant(genome.NormalizeChrom(m[2]), pos, m[4], m[5])
}

func runCodon(cmd *cobra.Command, arg, gene string) error {
	v, err := parseVariantArg(arg)
	if err != nil {
		return err
	}

	c, _, err := loadTranscripts()
	if err != nil {
		return err
	}

	if gene != "" && c.GetGene(gene) == nil {
		return fmt.Errorf("gene %q not found in annotation", gene)
	}

	ann := annotate.NewAnnotator(c)
	ann.SetLogger(logger)

	effects, err := ann.Annotate(v)
	if err != nil {
		return err
	}

	writer := output.NewTabWriter(cmd.OutOrStdout())
	if err := writer.WriteHeader(); err != nil {
		return err
	}
	for i := range effects {
		if gene != "" && effects[i].Transcript.GeneName != gene {
			continue
		}
		if err := writer.Write(&effects[i]); err != nil {
			return err
		}
	}
	return writer.Flush()
}
