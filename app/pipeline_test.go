package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dialectloss/app"
	"dialectloss/domain/core"
	"dialectloss/internal"
	"dialectloss/internal/config"
	"dialectloss/internal/testkit"

	"github.com/stretchr/testify/require"
)

func batchConfig(t *testing.T) *config.Config {
	t.Helper()
	tablesDir := t.TempDir()
	require.NoError(t, testkit.WriteCSV(filepath.Join(tablesDir, "okane.csv"), testkit.DecliningCSV()))
	require.NoError(t, testkit.WriteCSV(filepath.Join(tablesDir, "broken.csv"), testkit.AllZeroCSV()))

	return &config.Config{
		Paths: config.PathConfig{
			TablesDir: tablesDir,
			FigureDir: filepath.Join(t.TempDir(), "figures"),
			TableDir:  filepath.Join(t.TempDir(), "out"),
		},
		Output:  config.OutputConfig{SaveFigures: true, SaveTables: true},
		Grid:    config.GridConfig{YearMin: 1920, YearMinBand: 1800, YearMax: 2000, Points: 10000},
		Fit:     config.FitConfig{NAGQ: 15, ProfileTol: 1e-6},
		Workers: 2,
		Variables: []config.VariableSpec{
			{ID: "okane", Annotated: true},
			{ID: "broken"},
		},
		FisherPairs: []config.SpeakerPair{
			{Variable: "okane", SpeakerA: "akf1937", SpeakerB: "osg1961"},
		},
	}
}

func TestBatchIsResilientToFailedVariables(t *testing.T) {
	cfg := batchConfig(t)
	svc := app.NewAnalysisService(cfg, internal.NewLogger(internal.LogLevelError))

	res := svc.RunBatch(context.Background())

	require.Equal(t, 1, res.Manifest.Succeeded)
	require.Equal(t, 1, res.Manifest.Failed)
	require.NotEmpty(t, res.Manifest.RunID)

	// failed variable: surfaced data error at the load stage, others intact
	broken, ok := res.Get("broken")
	require.True(t, ok)
	require.True(t, broken.Failed())
	require.Equal(t, app.StageLoad, broken.Stage)
	require.True(t, core.IsDataError(broken.Err))
	require.Nil(t, broken.Model)

	okane, ok := res.Get("OKANE") // canonical keys are uppercase
	require.True(t, ok)
	require.False(t, okane.Failed())
	require.Equal(t, 90, okane.Expanded)
	require.True(t, okane.Model.Converged)
	require.Negative(t, okane.Slope.Estimate)
	require.Less(t, okane.Slope.Lower, okane.Slope.Estimate)
	require.Greater(t, okane.Slope.Upper, okane.Slope.Estimate)

	// declining from 0.9 to 0.1 puts the turning point strictly inside the
	// observed year range
	require.True(t, okane.Turning.Estimate.Ok)
	require.Greater(t, okane.Turning.Estimate.Year, 1920.0)
	require.Less(t, okane.Turning.Estimate.Year, 2000.0)
	if okane.Turning.Lower.Ok && okane.Turning.Upper.Ok {
		require.LessOrEqual(t, okane.Turning.Lower.Year, okane.Turning.Estimate.Year)
		require.LessOrEqual(t, okane.Turning.Estimate.Year, okane.Turning.Upper.Year)
	}

	// probability-at-origin is the logistic transform of the intercept CI
	require.Greater(t, okane.OriginProb.Estimate, 0.5)
	require.Less(t, okane.OriginProb.Lower, okane.OriginProb.Estimate)
	require.Greater(t, okane.OriginProb.Upper, okane.OriginProb.Estimate)
}

// A fault inside a stage must surface as that variable's failure record, not
// crash the run. The nil config guarantees a runtime fault in the load stage.
func TestRunVariableContainsPanics(t *testing.T) {
	svc := app.NewAnalysisService(nil, internal.NewLogger(internal.LogLevelError))

	res := svc.RunVariable(context.Background(), config.VariableSpec{ID: "okane"})
	require.True(t, res.Failed())
	require.Equal(t, app.StageLoad, res.Stage)
	require.Contains(t, res.Err.Error(), "panic")
}

func TestWriteOutputs(t *testing.T) {
	cfg := batchConfig(t)
	svc := app.NewAnalysisService(cfg, internal.NewLogger(internal.LogLevelError))

	res := svc.RunBatch(context.Background())
	require.NoError(t, svc.WriteOutputs(res))

	// tables: summary holds only the completed variable
	summary, err := os.ReadFile(filepath.Join(cfg.Paths.TableDir, "summary.csv"))
	require.NoError(t, err)
	require.Contains(t, string(summary), "okane")
	require.NotContains(t, string(summary), "broken")

	pairs, err := os.ReadFile(filepath.Join(cfg.Paths.TableDir, "speaker_pairs.csv"))
	require.NoError(t, err)
	require.Contains(t, string(pairs), "highly significant")

	report, err := os.ReadFile(filepath.Join(cfg.Paths.TableDir, "report.html"))
	require.NoError(t, err)
	require.Contains(t, string(report), "okane")
	require.Contains(t, string(report), "broken")

	// figures for the completed variable, including the annotated scatter
	require.FileExists(t, filepath.Join(cfg.Paths.FigureDir, "okane_fit.png"))
	require.FileExists(t, filepath.Join(cfg.Paths.FigureDir, "okane_speakers.png"))
	require.FileExists(t, filepath.Join(cfg.Paths.FigureDir, "origin_probability.png"))
	require.FileExists(t, filepath.Join(cfg.Paths.FigureDir, "slope.png"))
	require.NoFileExists(t, filepath.Join(cfg.Paths.FigureDir, "broken_fit.png"))
}
