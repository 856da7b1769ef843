// cmd/forge/main.go
//
// This is the entry point for the forge CLI.
// When you run `forge` from any directory, that directory is the project:
// its .forge/ folder holds the config, the structured log and the orders
// journal.
//
// Without a subcommand forge opens the terminal order menu.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/guild-forge/internal/announce"
	"github.com/kingrea/guild-forge/internal/catalog"
	"github.com/kingrea/guild-forge/internal/config"
	"github.com/kingrea/guild-forge/internal/flow"
	"github.com/kingrea/guild-forge/internal/intake"
	"github.com/kingrea/guild-forge/internal/logbook"
	"github.com/kingrea/guild-forge/internal/logging"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	verbose   bool
	workspace string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "forge - guild crafting order intake",
	Long: `forge collects crafting orders from guild members one question at a
time, prices them in materials and hands them to the crafters.

Run without arguments to open the terminal order menu, or use "forge serve"
to take orders over websockets.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the forge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "forge %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Project directory (default: current)")

	tuiCmd.Flags().StringVarP(&requester, "requester", "r", "", "Name orders are placed under (default: $USER)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Override bridge.host")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Override bridge.port")
	costCmd.Flags().StringVar(&costWeight, "weight", "", "Armour weight")
	costCmd.Flags().StringVar(&costTrait, "trait", "", "Trait name")
	costCmd.Flags().StringVar(&costEnchantment, "enchantment", "", "Glyph name")
	costCmd.Flags().StringVar(&costQuality, "quality", "", "Quality name (default: White)")
	costCmd.Flags().BoolVar(&costResearch, "research", false, "Price trait research instead of crafting")

	catalogCmd.AddCommand(costCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtime is everything a transport needs, built from the project directory.
type runtime struct {
	cfg     *config.Config
	logger  *logging.Logger
	catalog *catalog.Catalog
	journal *logbook.Logbook
	flows   *flow.Registry
	// announcer writes confirmed work to the orders journal.
	announcer *announce.Journal
}

func projectDir() (string, error) {
	if workspace != "" {
		return workspace, nil
	}
	return os.Getwd()
}

// setup initializes .forge/ and wires config, logging, catalog, engine and
// flows.
func setup() (*runtime, error) {
	dir, err := projectDir()
	if err != nil {
		return nil, fmt.Errorf("resolve project directory: %w", err)
	}
	if err := config.InitForgeDir(dir); err != nil {
		return nil, fmt.Errorf("initialize %s: %w", config.ForgeDir, err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(dir, verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (logging disabled)\n", err)
		logger = logging.Nop()
	}
	journal, err := logbook.New(cfg.OrdersJournalPath())
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	cat := catalog.Default()
	guild := cfg.Project.Guild
	engine, err := intake.New(cat,
		intake.WithLogger(logger.Logger),
		intake.WithMaxParts(cfg.Project.Intake.MaxParts),
		intake.WithAudience(guild.CrafterRole),
		intake.WithTier(guild.ReferenceTier),
	)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	logger.Debug("runtime ready",
		zap.String("project", dir),
		zap.Int("max_parts", cfg.Project.Intake.MaxParts),
		zap.Duration("wait", cfg.Wait()))
	return &runtime{
		cfg:       cfg,
		logger:    logger,
		catalog:   cat,
		journal:   journal,
		flows:     flow.Default(engine, guild.CrafterRole),
		announcer: announce.NewJournal(journal, cat, guild.ReferenceTier, logger.Logger),
	}, nil
}

func (r *runtime) close() {
	_ = r.logger.Close()
}
