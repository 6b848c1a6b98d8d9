package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"civiccal"
	"civiccal/internal/collector"
	"civiccal/internal/config"
	"civiccal/internal/logger"
	"civiccal/internal/source"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig  string
	flagDataDir string
	flagFormat  string
	flagVerbose bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "civiccal",
		Short: "Discover and collect public calendar feeds for US localities",
		Long: `civiccal finds the official calendars of a locality's civic
organizations (city hall, schools, chamber of commerce, library, parks)
starting from nothing but a city and state, then collects their events
into a local store.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "~/.local/share/civiccal", "Data directory for the registry and event store")
	cmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(newDiscoverCmd())
	cmd.AddCommand(newCollectCmd())
	cmd.AddCommand(newSourcesCmd())
	cmd.AddCommand(newReprioritizeCmd())
	cmd.AddCommand(newEventsCmd())
	return cmd
}

func newDiscoverCmd() *cobra.Command {
	var (
		flagCity    string
		flagState   string
		flagOrg     string
		flagPromote bool
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find calendar feeds for a locality",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat()
			if err != nil {
				return err
			}
			p, err := newPipeline()
			if err != nil {
				return err
			}

			var orgs []source.OrgType
			if flagOrg != "" {
				orgs = append(orgs, source.OrgType(strings.ToLower(flagOrg)))
			}

			feeds, err := p.DiscoverFeedsForLocation(cmd.Context(), flagCity, flagState, orgs...)
			if err != nil {
				return fmt.Errorf("discovering feeds: %w", err)
			}

			promoted := 0
			if flagPromote {
				for _, feed := range feeds {
					if _, added, err := p.PromoteFeed(cmd.Context(), feed); err != nil {
						return fmt.Errorf("registering feed: %w", err)
					} else if added {
						promoted++
					}
				}
			}

			return WriteFeeds(os.Stdout, feeds, promoted, format)
		},
	}

	cmd.Flags().StringVar(&flagCity, "city", "", "City name (required)")
	cmd.Flags().StringVar(&flagState, "state", "", "Two-letter state code (required)")
	cmd.Flags().StringVar(&flagOrg, "org", "", "Limit to one organization type (city, school, chamber, library, parks)")
	cmd.Flags().BoolVar(&flagPromote, "promote", false, "Register discovered feeds as sources")
	cmd.MarkFlagRequired("city")
	cmd.MarkFlagRequired("state")
	return cmd
}

func newCollectCmd() *cobra.Command {
	var flagSource string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect events from registered sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat()
			if err != nil {
				return err
			}
			p, err := newPipeline()
			if err != nil {
				return err
			}

			var results []collector.Result
			if flagSource != "" {
				res, err := p.CollectFromSource(cmd.Context(), flagSource)
				if err != nil && res.Source == nil {
					return err
				}
				results = append(results, res)
			} else {
				all, err := p.CollectFromAllSources(cmd.Context())
				if err != nil {
					return fmt.Errorf("collecting: %w", err)
				}
				results = all
			}

			return WriteResults(os.Stdout, results, format)
		},
	}

	cmd.Flags().StringVar(&flagSource, "source", "", "Collect a single source by ID")
	return cmd
}

func newSourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage registered calendar sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSources()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSources()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Activate or deactivate a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			src, err := p.ToggleSource(args[0])
			if err != nil {
				return err
			}
			state := "inactive"
			if src.IsActive {
				state = "active"
			}
			fmt.Printf("%s is now %s\n", src.Name, state)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			if err := p.RemoveSource(args[0]); err != nil {
				return err
			}
			fmt.Println("Source removed.")
			return nil
		},
	})
	return cmd
}

func listSources() error {
	format, err := parseFormat()
	if err != nil {
		return err
	}
	p, err := newPipeline()
	if err != nil {
		return err
	}
	return WriteSources(os.Stdout, p.Sources(), format)
}

func newReprioritizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reprioritize",
		Short: "Re-test feeds and activate the best working one per organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat()
			if err != nil {
				return err
			}
			p, err := newPipeline()
			if err != nil {
				return err
			}
			if err := p.ReprioritizeAllFeeds(cmd.Context()); err != nil {
				return fmt.Errorf("reprioritizing: %w", err)
			}
			return WriteSources(os.Stdout, p.Sources(), format)
		},
	}
}

func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List collected events",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat()
			if err != nil {
				return err
			}
			p, err := newPipeline()
			if err != nil {
				return err
			}
			return WriteEvents(os.Stdout, p.Events(), format)
		},
	}
}

func newPipeline() (*civiccal.Pipeline, error) {
	if flagVerbose {
		logger.SetDefault(logger.New(logger.LevelDebug, os.Stderr))
	}

	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	dir, err := expandDir(flagDataDir)
	if err != nil {
		return nil, err
	}
	return civiccal.New(civiccal.Options{
		Config:       cfg,
		RegistryPath: filepath.Join(dir, "sources.json"),
		StorePath:    filepath.Join(dir, "events.json"),
	})
}

func parseFormat() (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}
	return format, nil
}

func expandDir(dir string) (string, error) {
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	return dir, nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
