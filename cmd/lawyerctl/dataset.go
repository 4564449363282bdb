package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a lawyer dataset into the database",
	Long: `Copies a JSON array of lawyer records into the lawyers table.
With --key the dataset is read from dataset storage. With --file a local file
is archived to dataset storage first and then imported.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		key, _ := cmd.Flags().GetString("key")
		file, _ := cmd.Flags().GetString("file")
		if (key == "") == (file == "") {
			return eris.New("import: exactly one of --key or --file is required")
		}

		datasets, repo, closeDB, err := openDatasets()
		if err != nil {
			return err
		}
		defer closeDB()

		if ensure, _ := cmd.Flags().GetBool("create-schema"); ensure {
			if err := repo.EnsureSchema(ctx); err != nil {
				return err
			}
		}

		if key != "" {
			n, err := datasets.ImportKey(ctx, key)
			if err != nil {
				return eris.Wrap(err, "import")
			}
			zap.L().Info("lawyer dataset imported", zap.Int64("rows", n), zap.String("key", key))
			fmt.Printf("Imported %d lawyers from %s\n", n, key)
			return nil
		}

		f, err := os.Open(file)
		if err != nil {
			return eris.Wrapf(err, "import: open %s", file)
		}
		defer f.Close()

		res, err := datasets.Import(ctx, filepath.Base(file), f)
		if err != nil {
			return eris.Wrap(err, "import")
		}
		fmt.Printf("Imported %d lawyers (archived as %s)\n", res.Imported, res.Key)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the lawyers table to dataset storage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		name, _ := cmd.Flags().GetString("name")

		datasets, _, closeDB, err := openDatasets()
		if err != nil {
			return err
		}
		defer closeDB()

		res, err := datasets.Export(ctx, name)
		if err != nil {
			return eris.Wrap(err, "export")
		}

		fmt.Printf("Exported %d lawyers to %s\n", res.Exported, res.Key)
		return nil
	},
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of stored lawyers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		repo, closeDB := openRepository()
		defer closeDB()

		n, err := repo.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	},
}

func init() {
	importCmd.Flags().String("key", "", "dataset key in storage")
	importCmd.Flags().String("file", "", "local dataset file")
	importCmd.Flags().Bool("create-schema", false, "create the lawyers table first if missing")
	exportCmd.Flags().String("name", "lawyers", "dataset name used in the storage key")

	rootCmd.AddCommand(importCmd, exportCmd, countCmd)
}
