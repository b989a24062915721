package commands

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/l3aro/go-cfg-restore/internal/config"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize cfr configuration interactively",
	Long: `Guides you through setting up cfr configuration step by step.
Creates a config file with output format, strict-mode, and cache settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	conf := config.DefaultConfig()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Output format").
				Description("Default serialization for reconstructed graphs").
				Options(
					huh.NewOption("Graphviz DOT", "dot"),
					huh.NewOption("JSON", "json"),
				).
				Value(&conf.Format),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Strict mode").
				Description("Treat falling off the end of a procedure as an error?").
				Affirmative("Yes, fail").
				Negative("No, treat as exit").
				Value(&conf.Strict),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	cacheSize := strconv.Itoa(conf.CacheSize)
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Cache directory for batch runs").
				Placeholder(conf.CacheDir).
				Value(&conf.CacheDir),
			huh.NewInput().
				Title("Maximum cached renders (0 = unlimited)").
				Placeholder(cacheSize).
				Value(&cacheSize).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 0 {
						return fmt.Errorf("enter a non-negative integer")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	conf.CacheSize, _ = strconv.Atoi(cacheSize)

	if err := conf.Validate(); err != nil {
		return err
	}

	path := config.GlobalConfigPath()
	if err := conf.Save(path); err != nil {
		return err
	}
	fmt.Printf("Config written to %s\n", path)
	return nil
}

func init() {
	RootCmd.AddCommand(initCmd)
}
