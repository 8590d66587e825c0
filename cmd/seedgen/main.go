package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jengzang/restroom-map/internal/database"
	"github.com/jengzang/restroom-map/internal/logger"
	"github.com/jengzang/restroom-map/internal/repository"
	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

var (
	inputFile  = flag.String("f", "toilets.csv", "csv file with name,latitude,longitude[,secret] rows")
	outputFile = flag.String("o", "assets/toiletdb.db", "snapshot database to build")
	logLevel   = flag.String("log", "info", "log level")
)

func main() {
	flag.Parse()

	log, cleanup, err := logger.New(*logLevel, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := build(context.Background(), *inputFile, *outputFile, log); err != nil {
		log.Fatal("Building snapshot failed", zap.Error(err))
	}
}

func build(ctx context.Context, input, output string, log *zap.Logger) error {
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	points, bad, err := readPoints(f)
	if err != nil {
		return err
	}
	for _, e := range bad {
		log.Warn("Skipping row", zap.Int("line", e.Line), zap.Error(e.Err))
	}

	db, err := database.Open(database.Config{Path: output}, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.NewMigrationManager(db, log).RunMigrations(); err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(points),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetDescription("[cyan]Inserting points..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	repo := repository.NewPointRepository(db, log)
	n, err := repo.BatchInsert(ctx, points, func() { bar.Add(1) })
	if err != nil {
		return err
	}
	bar.Finish()
	fmt.Println()

	// Fold the WAL back into the main file so the snapshot is one file.
	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint: %w", err)
	}

	log.Info("Snapshot built",
		zap.String("output", output),
		zap.Int("inserted", n),
		zap.Int("skipped", len(bad)),
	)
	return nil
}
