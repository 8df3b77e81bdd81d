package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-seqevent/seq"
)

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.gpl")
	gpl := "GIMP Palette\nName: Test\nColumns: 2\n# comment\n0 0 0\tblack\n255 255 255\twhite\n"
	require.NoError(t, os.WriteFile(path, []byte(gpl), 0644))

	p, err := LoadGPL(path)
	require.NoError(t, err)
	assert.Equal(t, "Test", p.Name)
	assert.Equal(t, []RGB{{0, 0, 0}, {255, 255, 255}}, p.Colors)
	assert.Equal(t, []string{"black", "white"}, p.Names)
	assert.Equal(t, RGB{127, 127, 127}, p.Lookup(0.5))
	assert.Equal(t, RGB{255, 255, 255}, p.Index(9))
}

func TestLoadGPL_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gpl")
	require.NoError(t, os.WriteFile(path, []byte("GIMP Palette\n"), 0644))

	_, err := LoadGPL(path)
	assert.ErrorIs(t, err, ErrBadPalette)
}

func TestParseGPL_Errors(t *testing.T) {
	tests := []struct {
		name string
		gpl  string
		want string
	}{
		{"no header", "0 0 0\n", "header"},
		{"short entry", "GIMP Palette\n0 0\n", "line 2"},
		{"out of range", "GIMP Palette\nName: x\n0 256 0\n", "line 3"},
		{"not a number", "GIMP Palette\n# c\n\n1 2 z\n", "line 4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGPL(strings.NewReader(tt.gpl))
			require.ErrorIs(t, err, ErrBadPalette)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseGPL_MultiWordNames(t *testing.T) {
	p, err := ParseGPL(strings.NewReader("GIMP Palette\n10 20 30 deep sea blue\n"))
	require.NoError(t, err)
	assert.Equal(t, []RGB{{10, 20, 30}}, p.Colors)
	assert.Equal(t, []string{"deep sea blue"}, p.Names)
	assert.Equal(t, RGB{10, 20, 30}, p.Lookup(0.7), "single entry ramp")
	assert.Equal(t, "#0a141e", p.Colors[0].Hex())
}

func TestLoadOrDefault(t *testing.T) {
	p, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "builtin", p.Name)

	_, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.gpl"))
	assert.Error(t, err)
}

func TestClassColors(t *testing.T) {
	th := New(DefaultPalette())

	assert.Equal(t, lipgloss.Color("#f0f921"), th.ClassColor(seq.ClassVariable))
	assert.Equal(t, th.Muted(), th.ClassColor(seq.ClassUnknown))
	assert.NotEqual(t, th.ClassColor(seq.ClassNote), th.ClassColor(seq.ClassControl))
	assert.Equal(t, '♪', th.ClassSymbol(seq.ClassNote))
	assert.Equal(t, '·', th.ClassSymbol(seq.ClassUnknown))
}
