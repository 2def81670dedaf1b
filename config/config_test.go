package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLineAddressDevice(t *testing.T) {
	rec, err := parseLine("address-device library dev.so 0x1000 0x100 mydev", "/cfg")
	require.NoError(t, err)
	require.Equal(t, "address-device", rec.Kind)
	require.Equal(t, uint64(0x1000), rec.Start)
	require.Equal(t, uint64(0x100), rec.Length)
	require.Equal(t, "mydev", rec.ModulePrefix)
	require.Equal(t, filepath.Join("/cfg", "dev.so"), rec.Path)
}

func TestParseLinePortDevice(t *testing.T) {
	rec, err := parseLine("port-device library dev.so 0b1010 mydev", "/cfg")
	require.NoError(t, err)
	require.Equal(t, "port-device", rec.Kind)
	require.Equal(t, uint16(0b1010), rec.Port)
}

func TestParseLineRejectsUnknownKind(t *testing.T) {
	_, err := parseLine("bogus-device foo", "/cfg")
	require.Error(t, err)
}

func TestParseNumberForms(t *testing.T) {
	cases := map[string]uint64{
		"10":     10,
		"0x10":   16,
		"0b101":  5,
		"-1":     ^uint64(0),
		"0xFFFF": 0xFFFF,
	}
	for tok, want := range cases {
		got, err := parseNumber(tok)
		require.NoError(t, err, tok)
		require.Equal(t, want, got, tok)
	}
}

func TestLoadSkipsBlankAndCommentLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devices.cfg")
	content := "\n# comment\naddress-device library dev.so 0 0x10 mydev\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := Load(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, filepath.Join(dir, "dev.so"), records[0].Path)
}

func TestLoadReportsLineNumberOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devices.cfg")
	content := "address-device library dev.so notanumber 0x10 mydev\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), ":1:")
}
