// Package config parses the whitespace-separated device configuration
// file format and wires the devices it describes onto a running
// engine.AddressBus and engine.PortBus.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vm64fantasy/vm64/engine"
)

// Record is one parsed, not-yet-opened configuration line.
type Record struct {
	Kind         string // "address-device" or "port-device"
	LibraryKind  string // as written; Apply accepts only "library"
	Path         string // resolved relative to the config file's directory
	Start        uint64 // address-device only
	Length       uint64 // address-device only
	Port         uint16 // port-device only
	ModulePrefix string
	Line         int
	Source       string
}

// Load reads and parses the configuration file at path. Numeric fields
// accept 0x-hex, 0b-binary, or decimal, each optionally prefixed with
// '-' (two's-complement wrap). Relative paths inside the
// file are resolved against the config file's own directory.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dir := filepath.Dir(path)

	var records []Record
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rec, err := parseLine(line, dir)
		if err != nil {
			return nil, fmt.Errorf("config: %s:%d: %w", path, lineNo, err)
		}
		rec.Line = lineNo
		rec.Source = path
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	return records, nil
}

func parseLine(line, dir string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Record{}, fmt.Errorf("empty record")
	}

	switch fields[0] {
	case "address-device":
		if len(fields) != 6 {
			return Record{}, fmt.Errorf("address-device wants 5 fields, got %d: %s", len(fields)-1, line)
		}
		start, err := parseNumber(fields[3])
		if err != nil {
			return Record{}, fmt.Errorf("start address: %w", err)
		}
		length, err := parseNumber(fields[4])
		if err != nil {
			return Record{}, fmt.Errorf("length: %w", err)
		}
		return Record{
			Kind:         "address-device",
			LibraryKind:  fields[1],
			Path:         resolvePath(dir, fields[2]),
			Start:        start,
			Length:       length,
			ModulePrefix: fields[5],
		}, nil

	case "port-device":
		if len(fields) != 5 {
			return Record{}, fmt.Errorf("port-device wants 4 fields, got %d: %s", len(fields)-1, line)
		}
		port, err := parseNumber(fields[3])
		if err != nil {
			return Record{}, fmt.Errorf("port: %w", err)
		}
		if port > 0xFFFF {
			return Record{}, fmt.Errorf("port 0x%x out of range", port)
		}
		return Record{
			Kind:         "port-device",
			LibraryKind:  fields[1],
			Path:         resolvePath(dir, fields[2]),
			Port:         uint16(port),
			ModulePrefix: fields[4],
		}, nil

	default:
		return Record{}, fmt.Errorf("unknown record kind: %s", fields[0])
	}
}

func resolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// parseNumber accepts 0x-hex, 0b-binary, or decimal literals, each
// optionally prefixed with '-' for a two's-complement-wrapped negative
// value.
func parseNumber(tok string) (uint64, error) {
	neg := false
	if strings.HasPrefix(tok, "-") {
		neg = true
		tok = tok[1:]
	}

	base := 10
	switch {
	case strings.HasPrefix(tok, "0x"):
		base = 16
		tok = tok[2:]
	case strings.HasPrefix(tok, "0b"):
		base = 2
		tok = tok[2:]
	}

	v, err := strconv.ParseUint(tok, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric literal: %s", tok)
	}
	if neg {
		v = -v
	}
	return v, nil
}

// Apply opens every record's native library and registers the resulting
// device on the appropriate bus. It stops at the first failure, wrapping
// the offending record's source line for context, so the caller can
// abort before entering the clock loop.
func Apply(records []Record, bus *engine.AddressBus, ports *engine.PortBus) error {
	for _, rec := range records {
		if rec.LibraryKind != "library" {
			return fmt.Errorf("config: %s:%d: unknown library kind %q", rec.Source, rec.Line, rec.LibraryKind)
		}

		switch rec.Kind {
		case "address-device":
			dev, err := engine.NewLibraryAddressDevice(rec.Path, rec.ModulePrefix, rec.Length)
			if err != nil {
				return fmt.Errorf("config: %s:%d: %w", rec.Source, rec.Line, err)
			}
			if err := bus.Add(rec.Start, rec.Length, dev); err != nil {
				return fmt.Errorf("config: %s:%d: %w", rec.Source, rec.Line, err)
			}

		case "port-device":
			dev, err := engine.NewLibraryPortDevice(rec.Path, rec.ModulePrefix, rec.Port)
			if err != nil {
				return fmt.Errorf("config: %s:%d: %w", rec.Source, rec.Line, err)
			}
			if err := ports.Add(rec.Port, dev); err != nil {
				return fmt.Errorf("config: %s:%d: %w", rec.Source, rec.Line, err)
			}
		}
	}
	return nil
}
