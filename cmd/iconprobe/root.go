package main

import (
	"fmt"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ghyeongl/shellicon/shellicon"
)

var rootCmd = &cobra.Command{
	Use:           "iconprobe",
	Short:         "Inspect and resolve file-class icons",
	Long:          "iconprobe resolves the small per-extension icons a file browser displays,\nusing the host shell where available and theme directories as fallback.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("log-dir", "", "directory for rotating log files (empty: console only)")
	pf.StringSlice("theme-dir", nil, "icon theme directories, searched in order")
	pf.String("data-dir", "", "directory for the persistent icon cache (empty: in-memory only)")
	bindFlag(pf, "log_dir", "log-dir")
	bindFlag(pf, "theme_dir", "theme-dir")
	bindFlag(pf, "data_dir", "data-dir")

	viper.SetEnvPrefix("iconprobe")
	viper.AutomaticEnv()
	viper.SetConfigName(".iconprobe")
	viper.SetConfigType("yaml")
	if home, err := homedir.Dir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.ReadInConfig() //nolint:errcheck
}

func bindFlag(fs *pflag.FlagSet, key, flag string) {
	if err := viper.BindPFlag(key, fs.Lookup(flag)); err != nil {
		panic(err)
	}
}

// newResolver assembles the resolver from config: platform shell source,
// optional theme fallback, optional persistent store. The returned cleanup
// closes the store database.
func newResolver() (*shellicon.Resolver, func(), error) {
	shellicon.InitLogger(viper.GetString("log_dir"))

	sources := []shellicon.IconSource{shellicon.NewShellSource()}
	if dirs := expandAll(viper.GetStringSlice("theme_dir")); len(dirs) > 0 {
		sources = append(sources, shellicon.NewThemeSource(nil, dirs...))
	}

	opts := []shellicon.Option{}
	cleanup := func() {}
	if dataDir := viper.GetString("data_dir"); dataDir != "" {
		dataDir, err := homedir.Expand(dataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("expand data dir: %w", err)
		}
		db, err := shellicon.OpenDB(dataDir)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, shellicon.WithStore(shellicon.NewStore(db)))
		cleanup = func() { db.Close() }
	}

	return shellicon.NewResolver(shellicon.NewFallbackSource(sources...), opts...), cleanup, nil
}

func expandAll(dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if expanded, err := homedir.Expand(d); err == nil {
			out = append(out, expanded)
		} else {
			out = append(out, d)
		}
	}
	return out
}
