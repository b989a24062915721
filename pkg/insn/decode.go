package insn

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DecodeListing parses a listing document into a validated Procedure.
// The document is either a bare array of instruction records or an object
// wrapping the array with a procedure name. format is "json" or "yaml".
func DecodeListing(data []byte, format string) (*Procedure, error) {
	var proc Procedure

	switch format {
	case "json":
		if err := json.Unmarshal(data, &proc); err != nil {
			// Bare-array form.
			var insts []Instruction
			if arrErr := json.Unmarshal(data, &insts); arrErr != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedInstruction, err)
			}
			proc = Procedure{Instructions: insts}
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &proc); err != nil {
			var insts []Instruction
			if arrErr := yaml.Unmarshal(data, &insts); arrErr != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedInstruction, err)
			}
			proc = Procedure{Instructions: insts}
		}
	default:
		return nil, fmt.Errorf("unsupported listing format: %s", format)
	}

	if err := proc.Validate(); err != nil {
		return nil, err
	}

	return &proc, nil
}

// FormatForPath picks the listing format from a file extension.
// Unknown extensions default to JSON.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// LoadListing reads and decodes a listing file, picking JSON or YAML from the
// file extension.
func LoadListing(path string) (*Procedure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return DecodeListing(data, FormatForPath(path))
}

// Tracepoint is one executed instruction in a dynamic trace document. Field
// names follow the trace producer's schema.
type Tracepoint struct {
	Address              uint64 `json:"address"`
	HexDump              string `json:"hexDump"`
	Text                 string `json:"text"`
	IsBranch             bool   `json:"isBranch"`
	IsForeignBranch      bool   `json:"isForeignBranch"`
	ForeignTargetAddress uint64 `json:"foreignTargetAddress"`
	ForeignTargetName    string `json:"foreignTargetName"`
}

// Size returns the instruction's byte size, derived from its hex dump.
func (tp Tracepoint) Size() (uint64, error) {
	raw, err := hex.DecodeString(tp.HexDump)
	if err != nil {
		return 0, fmt.Errorf("%w: address 0x%x: bad hex dump %q", ErrMalformedInstruction, tp.Address, tp.HexDump)
	}
	return uint64(len(raw)), nil
}

// DecodeTrace parses a trace document: a JSON array of tracepoints in
// execution order. Unlike a listing, a trace may legitimately revisit
// addresses, so only per-point validation happens here.
func DecodeTrace(data []byte) ([]Tracepoint, error) {
	var points []Tracepoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInstruction, err)
	}
	if len(points) == 0 {
		return nil, ErrEmptyProcedure
	}
	for _, tp := range points {
		if _, err := tp.Size(); err != nil {
			return nil, err
		}
	}
	return points, nil
}

// LoadTrace reads and decodes a trace file.
func LoadTrace(path string) ([]Tracepoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return DecodeTrace(data)
}
