// Package main is the entry point for the midi2synth CLI
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gumaerc/midi-2-synth/pkg/api"
	"github.com/gumaerc/midi-2-synth/pkg/config"
	"github.com/gumaerc/midi-2-synth/pkg/logger"
	"github.com/gumaerc/midi-2-synth/pkg/mapper"
	"github.com/gumaerc/midi-2-synth/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	sourceFile string
	serverPort int
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "midi2synth",
	Short: "Split and merge beatmaps along MIDI tempo changes",
	Long: `midi2synth splits a beatmap into tempo-consistent segment beatmaps,
one per constant-tempo region of a reference MIDI file, and merges such
segments back into one continuous beatmap.

Examples:
  midi2synth split song.mid ./segments --source base_map.synth
  midi2synth merge base_map.synth ./segments merged.synth
  midi2synth tui
  midi2synth serve --port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger.Init(logger.Config{
			Level:      cfg.LogLevel,
			OutputPath: cfg.LogFile,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
		})
	},
}

var splitCmd = &cobra.Command{
	Use:   "split <midi> <output-dir>",
	Short: "Create beatmap segments matching MIDI tempo changes",
	Long:  `Splits the source beatmap into one beatmap per constant-tempo region of the MIDI file, each with its own audio slice and timing markers.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runSplit,
}

var mergeCmd = &cobra.Command{
	Use:   "merge <base.synth> <input-dir> <output.synth>",
	Short: "Merge segment beatmaps back into one beatmap",
	Args:  cobra.ExactArgs(3),
	RunE:  runMerge,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	splitCmd.Flags().StringVarP(&sourceFile, "source", "s", "", "Base .synth file to use as template (required)")
	_ = splitCmd.MarkFlagRequired("source")

	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

// validateSplitInputs checks the input files and creates the output
// directory.
func validateSplitInputs(midiPath, sourcePath, outputDir string) error {
	if _, err := os.Stat(midiPath); err != nil {
		return fmt.Errorf("MIDI file %q does not exist", midiPath)
	}
	lower := strings.ToLower(midiPath)
	if !strings.HasSuffix(lower, ".mid") && !strings.HasSuffix(lower, ".midi") {
		return fmt.Errorf("file %q does not appear to be a MIDI file", midiPath)
	}

	if _, err := os.Stat(sourcePath); err != nil {
		return fmt.Errorf("source beatmap file %q does not exist", sourcePath)
	}
	if !strings.HasSuffix(strings.ToLower(sourcePath), ".synth") {
		return fmt.Errorf("source file %q does not appear to be a .synth file", sourcePath)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("cannot create output directory %q: %w", outputDir, err)
	}
	return nil
}

func runSplit(cmd *cobra.Command, args []string) error {
	defer logger.Sync()
	midiPath, outputDir := args[0], args[1]

	if err := validateSplitInputs(midiPath, sourceFile, outputDir); err != nil {
		return err
	}

	summary, err := mapper.SplitBeatmap(midiPath, sourceFile, outputDir)
	if err != nil {
		return err
	}

	fmt.Printf("Tempo change points found: %d\n", summary.ChangePoints)
	fmt.Printf("Segments attempted: %d\n", summary.Attempted)
	fmt.Printf("Segments created:   %d\n", summary.Succeeded)
	fmt.Printf("Segments failed:    %d\n", summary.Failed)
	fmt.Printf("Output directory:   %s\n", outputDir)

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d segments failed", summary.Failed, summary.Attempted)
	}
	fmt.Println("All segments created successfully!")
	return nil
}

func runMerge(cmd *cobra.Command, args []string) error {
	defer logger.Sync()
	basePath, inputDir, outputPath := args[0], args[1], args[2]

	if _, err := os.Stat(basePath); err != nil {
		return fmt.Errorf("base beatmap file %q does not exist", basePath)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("cannot create output directory for %q: %w", outputPath, err)
	}

	merger := mapper.NewMerger()
	merger.Difficulty = cfg.Difficulty
	if err := merger.MergeFolder(basePath, inputDir, outputPath); err != nil {
		return err
	}

	fmt.Printf("Merged beatmap written to %s\n", outputPath)
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run()
}

func runServe(cmd *cobra.Command, args []string) error {
	port := serverPort
	if !cmd.Flags().Changed("port") && cfg.Port != 0 {
		port = cfg.Port
	}
	fmt.Printf("Starting API server on port %d...\n", port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", port)
	return api.StartServer(port)
}
