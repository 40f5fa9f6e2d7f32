package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/oytunturk/crank/logging"
)

var (
	logLevel string
	verbose  bool
	quiet    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "crank",
	Short: "Acoustic feature extraction for voice conversion corpora",
	Long: `crank extracts the acoustic features voice conversion recipes train on:
F0 contours, spectral envelopes, band aperiodicity, mel-cepstrum, and
log mel filterbank energies, saved as one container per utterance.

Examples:
  # Extract features for every wav under a corpus directory
  crank extract --conf conf/feature.yaml --out-dir feats corpus/SF1

  # Use the pitch range tuned for one speaker
  crank extract --spkr-conf conf/speakers.yaml --spkr SF1 corpus/SF1

  # Audit analysis quality with resynthesized audio
  crank extract --synth --out-dir feats corpus/SF1`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd, viper.GetViper()); err != nil {
			return err
		}
		return configureLogging()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"shorthand for --log-level debug")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"shorthand for --log-level error")
}

// initConfig enables environment variable overrides, CRANK_LOG_LEVEL
// and friends.
func initConfig() {
	viper.SetEnvPrefix("CRANK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// bindFlags applies viper values to flags the command line left unset.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				lastErr = err
			}
		}
		if err := v.BindPFlag(f.Name, f); err != nil {
			lastErr = err
		}
	})

	return lastErr
}

func configureLogging() error {
	if verbose {
		logLevel = "debug"
	}
	if quiet {
		logLevel = "error"
	}
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logging.SetLevel(level)
	return nil
}
