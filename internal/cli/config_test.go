package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/cellcluster/pkg/errors"
	"github.com/matzehuels/cellcluster/pkg/pipeline"
)

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.toml")

	require.NoError(t, writeDefaultConfig(path, false))

	opts, err := pipeline.LoadOptions(path)
	require.NoError(t, err)
	want := pipeline.DefaultOptions()
	assert.Equal(t, want.SimRunNum, opts.SimRunNum)
	assert.Equal(t, want.LayerNum, opts.LayerNum)
	assert.Equal(t, want.Formats, opts.Formats)
}

func TestWriteDefaultConfigKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.toml")
	require.NoError(t, os.WriteFile(path, []byte("sim_run_num = 50\n"), 0o644))

	err := writeDefaultConfig(path, false)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidPath), "got %v", err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sim_run_num = 50\n", string(data))

	require.NoError(t, writeDefaultConfig(path, true))
	opts, err := pipeline.LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, pipeline.DefaultSimRunNum, opts.SimRunNum)
}
