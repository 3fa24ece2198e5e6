package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/ghyeongl/shellicon/shellicon"
)

var keyCmd = &cobra.Command{
	Use:   "key <input>...",
	Short: "Print the canonical cache key for each input",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := shellicon.NewNormalizer(nil)
		for _, input := range args {
			key := n.Normalize(input)
			if key.IsZero() {
				fmt.Printf("%-40s (no icon)\n", input)
				continue
			}
			fmt.Printf("%-40s %s\n", input, key)
		}
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <path|extension|folder>",
	Short: "Resolve an icon and write it as PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, cleanup, err := newResolver()
		if err != nil {
			return err
		}
		defer cleanup()

		folderHint, _ := cmd.Flags().GetBool("folder")
		key := shellicon.FolderKey
		if !folderHint {
			key = resolver.Normalize(args[0])
		}
		icon, ok := resolver.Resolve(key)
		if !ok {
			return fmt.Errorf("no icon available for %q", args[0])
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = outputName(key)
		}
		data, err := icon.PNG()
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Printf("wrote %s (%d bytes)\n", out, len(data))
		return nil
	},
}

// outputName derives the default PNG filename from the resolved key, so
// --folder writes folder.png regardless of the input argument.
func outputName(key shellicon.CacheKey) string {
	if key.IsFolder() {
		return "folder.png"
	}
	return strings.TrimPrefix(key.String(), ".") + ".png"
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the keys in the persistent icon cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir := viper.GetString("data_dir")
		if dataDir == "" {
			return fmt.Errorf("keys requires --data-dir")
		}
		dataDir, err := homedir.Expand(dataDir)
		if err != nil {
			return fmt.Errorf("expand data dir: %w", err)
		}

		shellicon.InitLogger(viper.GetString("log_dir"))
		db, err := shellicon.OpenDB(dataDir)
		if err != nil {
			return err
		}
		defer db.Close()

		keys, err := shellicon.NewStore(db).Keys()
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Println(k)
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().Bool("folder", false, "force the folder icon regardless of input")
	resolveCmd.Flags().String("out", "", "output PNG path (default: derived from the key)")

	rootCmd.AddCommand(keyCmd, resolveCmd, keysCmd)
}
