package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsNonHttpScheme(t *testing.T) {
	cfg := Default()
	cfg.Url = "https://node.example"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveBatchSize(t *testing.T) {
	cfg := Default()
	cfg.InsertBatchSize = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestRegisterFlagsOverridesDefault(t *testing.T) {
	cfg := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, &cfg)

	require.NoError(t, fs.Parse([]string{"--url", "http://node:9029", "--insert-batch-size", "250"}))
	assert.Equal(t, "http://node:9029", cfg.Url)
	assert.Equal(t, 250, cfg.InsertBatchSize)
}

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	cfg := Default()
	assert.NoError(t, LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg))
}

func TestLoadFileOverlaysFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chronicle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("url: http://other:9029\nsync_start_slot: 42\n"), 0o644))

	cfg := Default()
	require.NoError(t, LoadFile(path, &cfg))
	assert.Equal(t, "http://other:9029", cfg.Url)
	assert.EqualValues(t, 42, cfg.SyncStartSlot)
	assert.Equal(t, Default().InsertBatchSize, cfg.InsertBatchSize)
}
