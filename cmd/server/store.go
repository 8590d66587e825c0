package main

import (
	"context"
	"database/sql"
	"errors"
	"os"

	"github.com/jengzang/restroom-map/internal/database"
	"github.com/jengzang/restroom-map/internal/repository"
	"go.uber.org/zap"
)

// openStore copies the snapshot on first run, then opens and migrates the
// point store. After a failed seed the store starts empty and marked; the
// next start retries the snapshot and carries over points added meanwhile.
func openStore(ctx context.Context, seedPath, dbPath string, log *zap.Logger) (*sql.DB, *repository.PointRepository, error) {
	copied, err := database.Seed(seedPath, dbPath)
	switch {
	case err != nil:
		log.Error("Seeding point store failed", zap.String("seed", seedPath), zap.Error(err))
		if err := database.MarkUnseeded(dbPath); err != nil {
			return nil, nil, err
		}
	case copied:
		log.Info("Point store seeded", zap.String("seed", seedPath), zap.String("path", dbPath))
	}

	db, err := database.Open(database.Config{Path: dbPath}, log)
	if err != nil {
		return nil, nil, err
	}
	if err := database.NewMigrationManager(db, log).RunMigrations(); err != nil {
		db.Close()
		return nil, nil, err
	}

	repo := repository.NewPointRepository(db, log)
	if copied {
		if err := importPreSeed(ctx, repo, database.PreSeedPath(dbPath), log); err != nil {
			log.Error("Importing points from the unseeded store failed", zap.Error(err))
		}
	}

	return db, repo, nil
}

// importPreSeed moves the points of a replaced unseeded store into repo and
// removes the old files
func importPreSeed(ctx context.Context, repo *repository.PointRepository, path string, log *zap.Logger) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	old, err := database.Open(database.Config{Path: path}, log)
	if err != nil {
		return err
	}
	if err := database.NewMigrationManager(old, log).RunMigrations(); err != nil {
		old.Close()
		return err
	}

	n, err := repo.ImportFrom(ctx, repository.NewPointRepository(old, log))
	old.Close()
	if err != nil {
		return err
	}

	for _, suffix := range []string{"", "-wal", "-shm"} {
		os.Remove(path + suffix)
	}
	log.Info("Imported points from the unseeded store", zap.Int("points", n))
	return nil
}
