package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jengzang/restroom-map/internal/database"
	"github.com/jengzang/restroom-map/internal/models"
	"github.com/jengzang/restroom-map/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sample = `name,latitude,longitude,secret
Seoul Station, 37.5547, 126.9707, 1234
City Hall,37.5663,126.9779
,37.1,127.1
Broken,abc,127.0
North Pole Plus,91,0
Gangnam,37.4979,127.0276,
`

func TestReadPoints(t *testing.T) {
	points, bad, err := readPoints(strings.NewReader(sample))
	require.NoError(t, err)

	require.Len(t, points, 3)
	assert.Equal(t, models.Point{Name: "Seoul Station", Latitude: 37.5547, Longitude: 126.9707, Secret: "1234"}, points[0])
	assert.Equal(t, models.NoSecret, points[1].Secret)
	assert.Equal(t, "Gangnam", points[2].Name)
	assert.Equal(t, models.NoSecret, points[2].Secret)

	require.Len(t, bad, 3)
	assert.Equal(t, 4, bad[0].Line)
	assert.Equal(t, 5, bad[1].Line)
	assert.Equal(t, 6, bad[2].Line)
}

func TestBuildSnapshot(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "toilets.csv")
	require.NoError(t, os.WriteFile(input, []byte(sample), 0o644))
	output := filepath.Join(dir, "assets", "toiletdb.db")

	require.NoError(t, build(context.Background(), input, output, zap.NewNop()))

	db, err := database.Open(database.Config{Path: output}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	all, err := repository.NewPointRepository(db, zap.NewNop()).ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
