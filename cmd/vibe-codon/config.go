package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configBaseName = ".vibe-codon"
	configFileName = configBaseName + ".yaml"

	envPrefix = "VIBE_CODON"

	gtfFlagName      = "gtf"
	fastaFlagName    = "fasta"
	assemblyFlagName = "assembly"
	cacheDirFlagName = "cache-dir"
	outputFlagName   = "output"
	formatFlagName   = "format"
	dbFlagName       = "db"
	workersFlagName  = "workers"
	logLevelFlagName = "log-level"
	logFileFlagName  = "log-file"

	gtfKey          = "annotation.gtf"
	fastaKey        = "annotation.fasta"
	assemblyKey     = "annotation.assembly"
	cacheDirKey     = "annotation.cache_dir"
	outputFormatKey = "output.format"
	outputDBKey     = "output.db"
	workersKey      = "run.workers"

	logLevelKey      = "log.level"
	logFileKey       = "log.file"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultAssembly      = "GRCh38"
	defaultOutputFormat  = "tab"
	defaultWorkers       = 0
	defaultLogLevel      = "info"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

func init() {
	setConfigDefaults()
}

func setConfigDefaults() {
	viper.SetDefault(assemblyKey, defaultAssembly)
	viper.SetDefault(outputFormatKey, defaultOutputFormat)
	viper.SetDefault(workersKey, defaultWorkers)

	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

// initConfig reads the config file and environment. A missing config file
// is not an error.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(configBaseName)
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return
		}
		fmt.Fprintf(os.Stderr, "Warning: could not read config: %v\n", err)
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vibe-codon configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/" + configFileName + ".",
		Example: `  vibe-codon config                                   # show all config
  vibe-codon config set annotation.gtf gencode.gtf.gz  # set the GTF file
  vibe-codon config get output.db                       # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, args[0])
		},
	}
}

func runConfigShow(cmd *cobra.Command) error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		cmd.Println("# No configuration set. Config file: ~/" + configFileName)
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	cmd.Print(string(out))
	return nil
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	// Parse boolean-like values
	switch value {
	case "true", "yes", "on":
		viper.Set(key, true)
	case "false", "no", "off":
		viper.Set(key, false)
	default:
		viper.Set(key, value)
	}

	target := viper.ConfigFileUsed()
	if target == "" {
		target = cfgFile
	}
	if target == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		target = filepath.Join(home, configFileName)
	}

	if err := viper.WriteConfigAs(target); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	cmd.Printf("Set %s = %s in %s\n", key, value, target)
	return nil
}

func runConfigGet(cmd *cobra.Command, key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	cmd.Println(val)
	return nil
}
