package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-codon/internal/annotate"
	"github.com/inodb/vibe-codon/internal/duckdb"
	"github.com/inodb/vibe-codon/internal/output"
	"github.com/inodb/vibe-codon/internal/vcf"
)

func newAnnotateCmd() *cobra.Command {
	var (
		outputFile string
		summary    bool
	)

	cmd := &cobra.Command{
		Use:   "annotate <input.vcf>",
		Short: "Compute codon changes for every variant in a VCF file",
		Long: `Compute the codon change of every variant in a VCF file on each overlapping
protein-coding transcript. Multi-allelic records are split per allele.
Use '-' to read the VCF from stdin.`,
		Example: `  vibe-codon annotate input.vcf
  vibe-codon annotate --gtf gencode.gtf.gz --fasta genome.fa.gz -o effects.tsv input.vcf.gz
  vibe-codon annotate --db effects.duckdb --summary input.vcf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(cmd, args[0], outputFile, summary)
		},
	}

	cmd.Flags().StringVarP(&outputFile, outputFlagName, "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&summary, "summary", false, "print a per-gene summary table to stderr")

	cmd.Flags().StringP(formatFlagName, "f", viper.GetString(outputFormatKey), "output format: tab")
	bindFlagToConfig(cmd.Flags().Lookup(formatFlagName), outputFormatKey)

	cmd.Flags().Int(workersFlagName, viper.GetInt(workersKey), "annotation workers (0 = number of CPUs)")
	bindFlagToConfig(cmd.Flags().Lookup(workersFlagName), workersKey)

	return cmd
}

func runAnnotate(cmd *cobra.Command, inputPath, outputFile string, summary bool) error {
	format := viper.GetString(outputFormatKey)
	if format != "tab" {
		return fmt.Errorf("unknown output format %q", format)
	}

	var parser vcf.VariantParser
	var err error
	if inputPath == "-" {
		parser, err = vcf.NewParserFromReader(cmd.InOrStdin())
	} else {
		parser, err = vcf.NewParser(inputPath)
	}
	if err != nil {
		return err
	}
	defer parser.Close()

	c, src, err := loadTranscripts()
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	writer := output.NewTabWriter(out)
	if err := writer.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	ann := annotate.NewAnnotator(c)
	ann.SetLogger(logger)
	ann.SetWorkers(viper.GetInt(workersKey))

	sink := annotate.NewVariantEffects()
	if err := ann.AnnotateAll(cmd.Context(), parser, sink, writer); err != nil {
		return err
	}

	effects := sink.Effects()

	if dbPath := viper.GetString(outputDBKey); dbPath != "" {
		if err := storeEffects(dbPath, src, effects); err != nil {
			return err
		}
	}

	if summary {
		s := output.NewSummary(effects, int(ann.Variants()), ann.Failures())
		fmt.Fprint(cmd.ErrOrStderr(), s.Render())
	}

	return nil
}

// storeEffects persists effects, discarding stored effects computed from
// different annotation files.
func storeEffects(dbPath string, src annotationSources, effects []annotate.Effect) error {
	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	match, err := store.SourcesMatch(src.gtf, src.fasta)
	if err != nil {
		return err
	}
	if !match {
		logger.Info("annotation sources changed, clearing stored effects", zap.String("db", dbPath))
		if err := store.ClearEffects(); err != nil {
			return fmt.Errorf("clear effects: %w", err)
		}
		if err := store.SetSources(src.gtf, src.fasta); err != nil {
			return err
		}
	}

	if err := store.WriteEffects(effects); err != nil {
		return err
	}

	total, err := store.CountEffects()
	if err != nil {
		return err
	}
	logger.Info("stored effects",
		zap.String("db", dbPath),
		zap.Int("written", len(effects)),
		zap.Int64("total", total))
	return nil
}
