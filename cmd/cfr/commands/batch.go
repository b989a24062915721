package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/l3aro/go-cfg-restore/internal/config"
	"github.com/l3aro/go-cfg-restore/internal/log"
	"github.com/l3aro/go-cfg-restore/pkg/cache"
	"github.com/l3aro/go-cfg-restore/pkg/cfg"
	"github.com/l3aro/go-cfg-restore/pkg/insn"
	"github.com/spf13/cobra"
)

// cacheFileName is the persisted render cache inside the cache directory.
const cacheFileName = "render.msgpack"

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Reconstruct CFGs for every listing under a directory",
	Long: `Walks a directory tree, reconstructs the control-flow graph for every
JSON or YAML instruction listing found, and writes one graph file per listing.
Rendered graphs are cached by input content hash, so unchanged listings are
not re-serialized across runs. Listings that fail reconstruction are reported
and counted; the command exits non-zero if any listing failed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := args[0]

		conf, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		strict := conf.Strict
		if cmd.Flags().Changed("strict") {
			strict, _ = cmd.Flags().GetBool("strict")
		}
		format := conf.Format
		if cmd.Flags().Changed("format") {
			format, _ = cmd.Flags().GetString("format")
		}
		outDir, _ := cmd.Flags().GetString("out")
		if outDir == "" {
			outDir = root
		}

		logger := log.Default()
		if conf.Verbose {
			logger.SetLevel(log.DebugLevel)
		}

		store := cache.New(cache.Options{MaxSize: conf.CacheSize})
		cachePath := filepath.Join(conf.CacheDir, cacheFileName)
		if err := store.LoadFile(cachePath); err != nil {
			logger.Warn("ignoring unreadable render cache", "file", cachePath, "error", err)
		}

		listings, err := findListings(root)
		if err != nil {
			return err
		}
		logger.Info("batch reconstruction", "dir", root, "listings", len(listings))

		failed := 0
		for _, path := range listings {
			if err := restoreOne(path, outDir, root, format, strict, store, logger); err != nil {
				logger.Error("reconstruction failed", "file", path, "error", err)
				failed++
			}
		}

		if err := store.SaveFile(cachePath); err != nil {
			logger.Warn("could not persist render cache", "file", cachePath, "error", err)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d listings failed", failed, len(listings))
		}
		return nil
	},
}

// findListings collects listing files under root, skipping dotted directories
// such as .cfr.
func findListings(root string) ([]string, error) {
	var listings []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".yaml", ".yml":
			listings = append(listings, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return listings, nil
}

// restoreOne reconstructs a single listing, going through the render cache.
func restoreOne(path, outDir, root, format string, strict bool, store *cache.RenderCache, logger log.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file %s: %w", path, err)
	}

	key := cache.Key(data, cacheVariant(format, strict))
	rendered, hit := store.Get(key)
	if hit {
		logger.Debug("cache hit", "file", path)
	} else {
		proc, err := insn.DecodeListing(data, insn.FormatForPath(path))
		if err != nil {
			return err
		}
		graph, err := cfg.Restore(proc, cfg.Options{Strict: strict})
		if err != nil {
			return err
		}
		out, err := graph.Render(format)
		if err != nil {
			return err
		}
		rendered = cache.Rendered{Format: format, Output: out, Warnings: graph.Warnings}
		store.Set(key, rendered)
	}

	for _, w := range rendered.Warnings {
		logger.Warn(w, "file", path)
	}

	outPath, err := outputPath(path, outDir, root, format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(outPath, rendered.Output, 0644); err != nil {
		return fmt.Errorf("writing output file %s: %w", outPath, err)
	}
	return nil
}

// cacheVariant distinguishes cache entries produced under different options
// for the same input bytes.
func cacheVariant(format string, strict bool) string {
	if strict {
		return format + "+strict"
	}
	return format
}

// outputPath mirrors the listing's location under outDir, swapping the
// extension for the output format's.
func outputPath(path, outDir, root, format string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("resolving output path for %s: %w", path, err)
	}
	ext := ".dot"
	if format == "json" {
		ext = ".cfg.json"
	}
	base := strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.Join(outDir, base+ext), nil
}

func init() {
	batchCmd.Flags().Bool("strict", false, "Fail on implicit fall-off-end instead of treating it as an exit")
	batchCmd.Flags().StringP("format", "f", "", "Output format: dot or json (default from config)")
	batchCmd.Flags().StringP("out", "o", "", "Output directory (default: alongside inputs)")
	RootCmd.AddCommand(batchCmd)
}
