package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reflectbot/reflectbot/internal/config"
	"github.com/reflectbot/reflectbot/internal/diary"
)

func newReadCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "read <YYYY-MM-DD>",
		Short: "Print the diary entry for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}

			store := diary.New(cfg.DataDir)
			content, err := store.ReadArtifact(args[0])
			if errors.Is(err, diary.ErrNotFound) {
				return fmt.Errorf("no diary entry found for %s", args[0])
			}
			if err != nil {
				return err
			}

			fmt.Println(content)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "override the data directory")
	return cmd
}
