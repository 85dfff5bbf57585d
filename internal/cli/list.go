package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reflectbot/reflectbot/internal/config"
	"github.com/reflectbot/reflectbot/internal/diary"
)

func newListCmd() *cobra.Command {
	var dataDir string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored diary entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}

			store := diary.New(cfg.DataDir)
			artifacts, err := store.ListArtifacts()
			if err != nil {
				return err
			}
			if len(artifacts) == 0 {
				fmt.Println("No diary entries found.")
				return nil
			}

			if limit > 0 && len(artifacts) > limit {
				artifacts = artifacts[:limit]
			}
			for _, a := range artifacts {
				fmt.Printf("%s  %2s/10  %s\n", a.Date, a.Rating, diary.FormatDisplayDate(a.Date))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "override the data directory")
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many entries (0 = all)")
	return cmd
}
