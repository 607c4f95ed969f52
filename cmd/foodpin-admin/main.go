package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/joho/godotenv"
	"github.com/mmcdole/foodpin/internal/adapter"
	"github.com/mmcdole/foodpin/internal/adapter/cloud"
	"github.com/mmcdole/foodpin/internal/admin"
	"github.com/mmcdole/foodpin/internal/cloudserver"
	"github.com/mmcdole/foodpin/internal/domain"
	"github.com/urfave/cli/v2"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	// Load .env when present; the real environment wins
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "foodpin-admin",
		Usage:   "Seed and inspect the FoodPin record database",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Usage:   "Record server URL",
				Value:   "http://localhost:8080",
				EnvVars: []string{"FOODPIN_CLOUD_URL"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "API token",
				EnvVars: []string{"FOODPIN_CLOUD_TOKEN"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "DEBUG, INFO, WARN or ERROR",
				Value: "WARN",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import restaurants from a CSV file",
				ArgsUsage: "<file.csv>",
				Action:    importRestaurants,
			},
			{
				Name:  "list",
				Usage: "List restaurant records",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Records per request",
						Value: domain.DefaultResultsLimit,
					},
				},
				Action: listRestaurants,
			},
			{
				Name:      "show",
				Usage:     "Show one restaurant record",
				ArgsUsage: "<record-id>",
				Action:    showRestaurant,
			},
			{
				Name:      "delete",
				Usage:     "Delete a restaurant record and its image",
				ArgsUsage: "<record-id>...",
				Action:    deleteRestaurants,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Context) *slog.Logger {
	return adapter.NewConsoleLogger(os.Stderr, c.String("log-level"))
}

func newClient(c *cli.Context, logger *slog.Logger) *cloud.Client {
	return cloud.NewClient(c.String("server"), c.String("token"), "", logger)
}

func importRestaurants(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected one CSV file")
	}
	path := c.Args().First()
	logger := newLogger(c)

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	rows, err := admin.ParseCSV(f, filepath.Dir(path))
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	cfg, err := cloudserver.LoadConfig()
	if err != nil {
		return err
	}
	var assets cloudserver.AssetStore
	if cfg.MinIO.Endpoint != "" {
		minioAssets, err := cloudserver.NewMinIOAssets(c.Context, cfg.MinIO, logger)
		if err != nil {
			return err
		}
		assets = minioAssets
	} else {
		logger.Warn("FOODPIN_CLOUD_MINIO_ENDPOINT not set, rows with images will fail")
	}

	importer := admin.NewImporter(newClient(c, logger), assets, logger)

	bar := pb.StartNew(len(rows))
	res, err := importer.Import(c.Context, rows, func(done, total int) {
		bar.SetCurrent(int64(done))
	})
	bar.Finish()
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d restaurants, %d failed\n", res.Saved, res.Failed)
	if res.Failed > 0 {
		return fmt.Errorf("%d rows failed", res.Failed)
	}
	return nil
}

func listRestaurants(c *cli.Context) error {
	client := newClient(c, newLogger(c))

	ctx, cancel := context.WithTimeout(c.Context, 5*time.Minute)
	defer cancel()

	total, err := admin.List(ctx, client, c.Int("page-size"), func(page []admin.Listing) {
		for _, l := range page {
			fmt.Println(l)
		}
	})
	if err != nil {
		return err
	}
	fmt.Printf("%d restaurants\n", total)
	return nil
}

func showRestaurant(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected one record id")
	}
	client := newClient(c, newLogger(c))

	l, err := admin.Show(c.Context, client, domain.RecordID(c.Args().First()))
	if err != nil {
		return err
	}
	fmt.Println(l)
	return nil
}

func deleteRestaurants(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("expected at least one record id")
	}
	client := newClient(c, newLogger(c))

	var failed int
	for _, id := range c.Args().Slice() {
		if err := client.DeleteRecord(c.Context, domain.RecordID(id)); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", id, err)
			failed++
			continue
		}
		fmt.Printf("Deleted %s\n", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d deletes failed", failed)
	}
	return nil
}
