package sdl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSdlFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadDirParsesDescriptorsAndPicksLatestVersion(t *testing.T) {
	dir := t.TempDir()
	writeSdlFile(t, dir, "Teledahn.sdl", `
STATEDESC Teledahn
{
	VERSION 2
	VAR BOOL IsOpen DEFAULT=0
	VAR FLOAT DayLength[] DEFAULT=30
}
`)
	writeSdlFile(t, dir, "TeledahnV1.sdl", `
STATEDESC Teledahn
{
	VERSION 1
	VAR BOOL IsOpen DEFAULT=0
}
`)

	cat, err := LoadDir(dir)
	require.NoError(t, err)

	latest := cat.Latest("Teledahn")
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.Version)
	require.Len(t, latest.SimpleVars, 2)
	assert.Equal(t, "IsOpen", latest.SimpleVars[0].Name)
	assert.Equal(t, "DayLength", latest.SimpleVars[1].Name)
	assert.Equal(t, 0, latest.SimpleVars[1].Count)

	v1 := cat.Version("Teledahn", 1)
	require.NotNil(t, v1)
	assert.Equal(t, 1, v1.Version)
}

func TestLatestReturnsNilForUnknownName(t *testing.T) {
	cat, err := LoadDir(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, cat.Latest("NoSuchAge"))
}
