package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/TobiSchelling/KPIMap/internal/kpi"
	"github.com/TobiSchelling/KPIMap/internal/tree"
)

// Version tags identifying how a document was produced.
const (
	VersionComplete = "1.0-nyss-complete-all-pillars"
	VersionSimple   = "1.0-nyss-simple-2level"
	VersionFixed    = "1.0-nyss-complete-all-pillars-fixed"
)

var (
	// ErrNotFound is returned when the input document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrMalformed is returned when the input is not a valid document.
	ErrMalformed = errors.New("malformed document")
)

// IntelligenceLayers names the annotation layers attached to every KPI.
var IntelligenceLayers = []string{
	"Context & Business Impact",
	"Current State Analysis",
	"Historical Trends (6 months)",
	"Root Cause Analysis",
	"Predictive Insights (AI-powered)",
	"Trend Analysis (Statistical)",
	"Dependencies (Upstream/Downstream)",
	"People & Accountability",
	"Recommended Actions (Detailed)",
	"Contributing Factors",
}

// Document is the top-level output file.
type Document struct {
	Version            string        `json:"version"`
	TotalNodes         int           `json:"total_nodes"`
	Organization       string        `json:"organization"`
	Scope              string        `json:"scope,omitempty"`
	IntelligenceLayers []string      `json:"intelligence_layers"`
	Tree               *tree.Node    `json:"tree"`
	Nodes              []*kpi.Record `json:"nodes"`
}

// New assembles a document. TotalNodes is the record count.
func New(org, scope, version string, records []*kpi.Record, root *tree.Node) *Document {
	return &Document{
		Version:            version,
		TotalNodes:         len(records),
		Organization:       org,
		Scope:              scope,
		IntelligenceLayers: append([]string(nil), IntelligenceLayers...),
		Tree:               root,
		Nodes:              records,
	}
}

// Load reads a document from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return Parse(data)
}

// Parse decodes a document. A document without a nodes array is malformed.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Nodes == nil {
		return nil, fmt.Errorf("%w: missing nodes", ErrMalformed)
	}
	return &doc, nil
}

// Marshal renders the document with two-space indentation and a trailing newline.
func Marshal(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return append(data, '\n'), nil
}

// Write replaces path with doc atomically.
func Write(path string, doc *Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// Export copies the document at src to each mirror path. Mirrors equal to
// src are skipped.
func Export(src string, mirrors []string) ([]string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, src)
		}
		return nil, fmt.Errorf("reading document: %w", err)
	}
	if _, err := Parse(data); err != nil {
		return nil, err
	}

	srcAbs, _ := filepath.Abs(src)
	var written []string
	for _, m := range mirrors {
		if abs, _ := filepath.Abs(m); abs == srcAbs {
			continue
		}
		if err := writeFileAtomic(m, data); err != nil {
			return written, fmt.Errorf("exporting to %s: %w", m, err)
		}
		written = append(written, m)
	}
	return written, nil
}

// DiffTrees returns a unified diff of the two trees' JSON renderings, or an
// empty string when they are identical.
func DiffTrees(old, updated *tree.Node) (string, error) {
	a, err := json.MarshalIndent(old, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal old tree: %w", err)
	}
	b, err := json.MarshalIndent(updated, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal new tree: %w", err)
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a) + "\n"),
		B:        difflib.SplitLines(string(b) + "\n"),
		FromFile: "tree (current)",
		ToFile:   "tree (rebuilt)",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diff trees: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	return text, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()
	// Served as a static asset, so readable by others.
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
