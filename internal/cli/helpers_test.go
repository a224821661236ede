package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// projectRoot returns the project root directory.
// Tests run from the package directory, but shared fixtures live under the
// project root.
func projectRoot() string {
	root, _ := filepath.Abs("../..")
	return root
}

func chainDir() string {
	return filepath.Join(projectRoot(), "testdata", "factories", "chain")
}

func scenariosDir() string {
	return filepath.Join(projectRoot(), "testdata", "scenarios")
}

// writeFactory writes src as factory.cue in a fresh directory.
func writeFactory(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "factory.cue"), []byte(src), 0644))
	return dir
}

// execute runs cmd with args and returns stdout and the error.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
