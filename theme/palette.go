package theme

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrBadPalette is returned for files that are not GIMP palettes
var ErrBadPalette = errors.New("theme: bad palette")

type RGB [3]uint8

// Hex formats the colour as #rrggbb
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// Palette is an ordered colour ramp. Names holds the optional per entry
// names from the file, parallel to Colors.
type Palette struct {
	Name   string
	Colors []RGB
	Names  []string
}

// DefaultPalette is used when no .gpl file is configured (plasma-like ramp)
func DefaultPalette() *Palette {
	return &Palette{
		Name: "builtin",
		Colors: []RGB{
			{13, 8, 135},
			{84, 2, 163},
			{139, 10, 165},
			{185, 50, 137},
			{219, 92, 104},
			{244, 136, 73},
			{254, 188, 43},
			{240, 249, 33},
		},
		Names: make([]string, 8),
	}
}

// LoadOrDefault loads path, falling back to DefaultPalette when path is empty
func LoadOrDefault(path string) (*Palette, error) {
	if path == "" {
		return DefaultPalette(), nil
	}
	return LoadGPL(path)
}

// LoadGPL reads a GIMP .gpl palette file
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := ParseGPL(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ParseGPL reads a GIMP palette. The first line must be the "GIMP Palette"
// magic; "Name:" and "Columns:" headers and # comments may follow, then one
// "R G B [name]" entry per line with components in 0-255.
func ParseGPL(r io.Reader) (*Palette, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "GIMP Palette" {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("missing GIMP Palette header: %w", ErrBadPalette)
	}

	p := &Palette{}
	for lineNo := 2; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || line[0] == '#':
			continue
		case strings.HasPrefix(line, "Name:"):
			p.Name = strings.TrimSpace(strings.TrimPrefix(line, "Name:"))
			continue
		case strings.HasPrefix(line, "Columns:"):
			continue
		}

		c, name, err := parseEntry(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		p.Colors = append(p.Colors, c)
		p.Names = append(p.Names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(p.Colors) == 0 {
		return nil, fmt.Errorf("no colors: %w", ErrBadPalette)
	}
	return p, nil
}

func parseEntry(line string) (RGB, string, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return RGB{}, "", fmt.Errorf("entry %q: %w", line, ErrBadPalette)
	}

	var c RGB
	for i := range c {
		v, err := strconv.Atoi(fields[i])
		if err != nil || v < 0 || v > 255 {
			return RGB{}, "", fmt.Errorf("component %q: %w", fields[i], ErrBadPalette)
		}
		c[i] = uint8(v)
	}
	return c, strings.Join(fields[3:], " "), nil
}

// Lookup returns the colour at position norm along the ramp, interpolating
// between neighbouring entries. norm is clamped to 0-1.
func (p *Palette) Lookup(norm float64) RGB {
	norm = min(max(norm, 0), 1)
	last := len(p.Colors) - 1
	pos := norm * float64(last)
	i := min(int(pos), last)
	if i == last {
		return p.Colors[last]
	}

	frac := pos - float64(i)
	var out RGB
	for k := range out {
		a, b := float64(p.Colors[i][k]), float64(p.Colors[i+1][k])
		out[k] = uint8(a + (b-a)*frac)
	}
	return out
}

// Index returns the entry at i, clamped to the palette bounds
func (p *Palette) Index(i int) RGB {
	return p.Colors[min(max(i, 0), len(p.Colors)-1)]
}
