package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// cfgFile overrides the default config location when set.
var cfgFile string

// verbose switches logging to a human-readable console encoder at debug level.
var verbose bool

// logger is built once flags and config are parsed.
var logger = zap.NewNop()

func init() {
	cobra.OnInitialize(initConfig)
}

const rootLongDescription = `vibe-codon computes the codon-level change a genomic variant causes on
every overlapping protein-coding transcript: the reference codons, the
alternate codons and the index of the first changed codon.

Transcripts are read from a GENCODE GTF file and exon sequences from the
matching genome FASTA.`

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "vibe-codon",
		Short:        "Codon change calculator for genomic variants",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			l, err := newLogger(cmd.ErrOrStderr(), verbose)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	cmd.AddCommand(newAnnotateCmd())
	cmd.AddCommand(newCodonCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/"+configFileName+")")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level in console format")

	cmd.PersistentFlags().String(gtfFlagName, viper.GetString(gtfKey), "GENCODE GTF annotation file")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(gtfFlagName), gtfKey)

	cmd.PersistentFlags().String(fastaFlagName, viper.GetString(fastaKey), "genome FASTA file with sequences for the GTF chromosomes")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(fastaFlagName), fastaKey)

	cmd.PersistentFlags().String(assemblyFlagName, viper.GetString(assemblyKey), "genome assembly used to locate downloaded files: GRCh37 or GRCh38")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(assemblyFlagName), assemblyKey)

	cmd.PersistentFlags().String(cacheDirFlagName, viper.GetString(cacheDirKey), "directory for the parsed transcript cache (empty disables it)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(cacheDirFlagName), cacheDirKey)

	cmd.PersistentFlags().String(dbFlagName, viper.GetString(outputDBKey), "DuckDB file storing computed effects (empty disables it)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(dbFlagName), outputDBKey)

	cmd.PersistentFlags().String(logLevelFlagName, viper.GetString(logLevelKey), "log level: debug, info, warn, error")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logLevelFlagName), logLevelKey)

	cmd.PersistentFlags().String(logFileFlagName, viper.GetString(logFileKey), "also write JSON logs to this rotating file")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFileKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}
