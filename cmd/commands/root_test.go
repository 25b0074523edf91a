package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"price-tracker/internal/series"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paths struct {
	data, chart string
}

func newPaths(t *testing.T) paths {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PRICE_TRACKER_APP_LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("PRICE_TRACKER_SOURCE_SEED", "11")
	t.Setenv("IMESSAGE_RECIPIENT", "")
	return paths{
		data:  filepath.Join(dir, "prices.csv"),
		chart: filepath.Join(dir, "charts", "price_chart.png"),
	}
}

// execute runs the command tree with args against the files in p.
func execute(t *testing.T, p paths, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(t)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append(args, "--data-file", p.data, "--chart-file", p.chart))

	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func resetFlags(t *testing.T) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	}
	rootCmd.Flags().VisitAll(reset)
	rootCmd.PersistentFlags().VisitAll(reset)
	exportCmd.Flags().VisitAll(reset)
}

func TestRootDemoRendersWithoutTouchingData(t *testing.T) {
	p := newPaths(t)
	stdout, _, err := execute(t, p, "--demo")
	require.NoError(t, err)

	assert.Contains(t, stdout, "demo   ok")
	assert.NotContains(t, stdout, "update")
	assert.FileExists(t, p.chart)
	assert.NoFileExists(t, p.data)
}

func TestRootDefaultUpdatesAndCharts(t *testing.T) {
	p := newPaths(t)
	stdout, _, err := execute(t, p)
	require.NoError(t, err)

	assert.Contains(t, stdout, "update ok")
	assert.Contains(t, stdout, "chart  ok")
	assert.FileExists(t, p.chart)

	s, err := series.NewCSVStore(p.data).Load(t.Context())
	require.NoError(t, err)
	require.Len(t, s, 1)
	assert.True(t, s[0].Egg.Valid)
	assert.True(t, s[0].Gas.Valid)
}

func TestRootSendWithoutPhoneIsNotFatal(t *testing.T) {
	stdout, stderr, err := execute(t, newPaths(t), "--update", "--send")
	require.NoError(t, err)

	assert.Contains(t, stdout, "update ok")
	assert.Contains(t, stderr, "no phone number provided")
}

func TestExportWritesParquet(t *testing.T) {
	p := newPaths(t)
	out := filepath.Join(t.TempDir(), "prices.parquet")
	require.NoError(t, os.WriteFile(p.data, []byte("date,egg_price,gas_price\n2024-01-01,3.1,3.5\n2024-01-08,3.2,\n"), 0644))

	stdout, _, err := execute(t, p, "export", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Exported 2 records")

	s, err := series.ReadParquet(out)
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.False(t, s[1].Gas.Valid)
}

func TestExportEmptyStore(t *testing.T) {
	_, _, err := execute(t, newPaths(t), "export", "--out", filepath.Join(t.TempDir(), "x.parquet"))
	assert.Error(t, err)
}

func TestDemoFlagHelpMentionsOtherModes(t *testing.T) {
	f := rootCmd.Flags().Lookup("demo")
	require.NotNil(t, f)
	assert.Contains(t, f.Usage, "other mode flags given with --demo run after it")
}
