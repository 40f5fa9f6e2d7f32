package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/oytunturk/crank/feature"
	"github.com/oytunturk/crank/feature/config"
	"github.com/oytunturk/crank/logging"
)

var (
	extractConf     string
	extractSpkrConf string
	extractSpeaker  string
	extractOutDir   string
	extractSynth    bool
	extractF0Only   bool
	extractJobs     int
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [flags] <wav-file-or-dir>...",
	Short: "Extract acoustic features from WAV files",
	Long: `Extract acoustic features from WAV files and save one feature
container per utterance under the output directory.

Directories given as arguments are walked recursively for .wav files.
Files whose container already exists are skipped, so interrupted runs
can simply be restarted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractConf, "conf", "",
		"analysis config YAML (defaults apply when omitted)")
	extractCmd.Flags().StringVar(&extractSpkrConf, "spkr-conf", "",
		"speaker config YAML mapping speaker names to pitch ranges")
	extractCmd.Flags().StringVar(&extractSpeaker, "spkr", "",
		"speaker name to select from --spkr-conf")
	extractCmd.Flags().StringVarP(&extractOutDir, "out-dir", "o", "features",
		"output directory for feature containers")
	extractCmd.Flags().BoolVar(&extractSynth, "synth", false,
		"write analysis-synthesis and Griffin-Lim diagnostics")
	extractCmd.Flags().BoolVar(&extractF0Only, "f0-only", false,
		"stop after the pitch contours, for f0 statistics runs")
	extractCmd.Flags().IntVarP(&extractJobs, "jobs", "j", 1,
		"number of files to process in parallel")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	conf := config.DefaultAnalysisConfig()
	if extractConf != "" {
		loaded, err := config.LoadAnalysisConfig(extractConf)
		if err != nil {
			return err
		}
		conf = loaded
	}

	spkr := config.DefaultSpeakerConfig()
	if extractSpkrConf != "" {
		if extractSpeaker == "" {
			return fmt.Errorf("--spkr is required with --spkr-conf")
		}
		speakers, err := config.LoadSpeakerConfigs(extractSpkrConf)
		if err != nil {
			return err
		}
		selected, ok := speakers[extractSpeaker]
		if !ok {
			return fmt.Errorf("speaker %q not found in %s", extractSpeaker, extractSpkrConf)
		}
		spkr = selected
	}

	files, err := collectWavFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no wav files found under %s", strings.Join(args, ", "))
	}

	extractor, err := feature.NewExtractor(conf, spkr, feature.Options{
		OutDir:    extractOutDir,
		Synthesis: extractSynth,
		F0Only:    extractF0Only,
	})
	if err != nil {
		return err
	}

	jobs := extractJobs
	if jobs < 1 {
		jobs = 1
	}

	logger := logging.WithFields(logging.Fields{"component": "extract_cmd"})
	logger.Info("starting extraction", logging.Fields{
		"files":   len(files),
		"out_dir": extractOutDir,
		"jobs":    jobs,
	})

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(jobs)
	for _, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := extractor.Process(path); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("extraction finished", logging.Fields{"files": len(files)})
	return nil
}

// collectWavFiles expands directory arguments into the .wav files below
// them and returns a sorted list.
func collectWavFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if strings.EqualFold(filepath.Ext(path), ".wav") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}
