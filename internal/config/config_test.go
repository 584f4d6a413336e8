package config_test

import (
	"path/filepath"
	"testing"

	"dialectloss/internal/config"
	"dialectloss/internal/testkit"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "tables", cfg.Paths.TablesDir)
	require.False(t, cfg.Output.SaveFigures)
	require.False(t, cfg.Output.SaveTables)
	require.Equal(t, 1920, cfg.Grid.YearMin)
	require.Equal(t, 1800, cfg.Grid.YearMinBand)
	require.Equal(t, 2000, cfg.Grid.YearMax)
	require.Equal(t, 10000, cfg.Grid.Points)
	require.Equal(t, 15, cfg.Fit.NAGQ)
	require.Equal(t, 1e-6, cfg.Fit.ProfileTol)
	require.Equal(t, 4, cfg.Workers)

	require.Len(t, cfg.Variables, 11)
	require.Equal(t, "okane", cfg.Variables[0].ID)
	require.True(t, cfg.Variables[0].Annotated)
	require.Equal(t, "jat", cfg.Variables[1].ID)
	require.True(t, cfg.Variables[1].AltOptimizer)
	require.Len(t, cfg.FisherPairs, 3)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TABLES_DIR", "/data/tables")
	t.Setenv("SAVE_FIGURES", "true")
	t.Setenv("GRID_POINTS", "500")
	t.Setenv("NAGQ", "1")
	t.Setenv("WORKERS", "2")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "/data/tables", cfg.Paths.TablesDir)
	require.True(t, cfg.Output.SaveFigures)
	require.Equal(t, 500, cfg.Grid.Points)
	require.Equal(t, 1, cfg.Fit.NAGQ)
	require.Equal(t, 2, cfg.Workers)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"GRID_POINTS":  "1",
		"YEARMIN_BAND": "2100",
		"NAGQ":         "0",
		"PROFILE_TOL":  "-1",
		"WORKERS":      "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := config.Load()
			require.Error(t, err)
		})
	}
}

func TestTablePathPrefersCSV(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Paths: config.PathConfig{TablesDir: dir}}

	// neither file exists: the CSV convention is still reported, so the
	// loader surfaces a not-found error with the expected name
	require.Equal(t, filepath.Join(dir, "okane.csv"), cfg.TablePath("okane"))

	require.NoError(t, testkit.WriteCSV(filepath.Join(dir, "okane.csv"), testkit.DecliningCSV()))
	require.Equal(t, filepath.Join(dir, "okane.csv"), cfg.TablePath("okane"))
}

func TestTablePathFallsBackToXLSX(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Paths: config.PathConfig{TablesDir: dir}}

	xlsx := filepath.Join(dir, "jat.xlsx")
	require.NoError(t, testkit.WriteCSV(xlsx, [][]string{{"placeholder"}}))
	require.Equal(t, xlsx, cfg.TablePath("jat"))
}
