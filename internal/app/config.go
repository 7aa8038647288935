package app

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/droidprune/internal/config"
)

var configFlagForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialise the configuration",
	Long: `Show the effective configuration, after the config file, DROIDPRUNE_*
environment variables and global flags have been applied.

Settings:
  adb_path            adb binary (default: bundled platform-tools, then $PATH)
  serial              device serial when more than one is attached
  backups_dir         where uninstall backups are written
  db_path             backup index and run history database
  release_latest_url  URL that redirects to the newest release tag
  release_page_url    page opened when an update is available
  package_info_url    lookup URL, %s is replaced by the query
  command_timeout     per-adb-command timeout
  update_timeout      update check timeout
  log_level           debug, info, warn or error
  log_file            write logs here instead of stderr`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := renderConfig(cfg)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the default config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configFilePath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configFilePath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !configFlagForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}

		// The file being written usually does not exist yet.
		cfg, err := config.LoadOrDefault(path)
		if err != nil {
			return err
		}
		applyFlagOverrides(cfg)
		if err := config.SaveTo(cfg, path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configFlagForce, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configPathCmd, configInitCmd)
	RootCmd.AddCommand(configCmd)
}

func configFilePath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultPath()
}

// renderConfig renders cfg as YAML in the key order of the config file, so
// the output can be pasted into droidprune.yaml.
func renderConfig(cfg *config.Config) (string, error) {
	doc := yaml.MapSlice{
		{Key: "adb_path", Value: cfg.ADBPath},
		{Key: "serial", Value: cfg.Serial},
		{Key: "backups_dir", Value: cfg.BackupsDir},
		{Key: "db_path", Value: cfg.DBPath},
		{Key: "release_latest_url", Value: cfg.ReleaseLatestURL},
		{Key: "release_page_url", Value: cfg.ReleasePageURL},
		{Key: "package_info_url", Value: cfg.PackageInfoURL},
		{Key: "command_timeout", Value: cfg.CommandTimeout.String()},
		{Key: "update_timeout", Value: cfg.UpdateTimeout.String()},
		{Key: "log_level", Value: cfg.LogLevel},
		{Key: "log_file", Value: cfg.LogFile},
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return string(out), nil
}
