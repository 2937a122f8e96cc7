package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// =============================================================================
// Workspace Serialization API
// =============================================================================

// MarshalWorkspace converts a workspace to indented JSON bytes.
func MarshalWorkspace(ws *Workspace) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWorkspace(ws, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalWorkspace decodes JSON bytes into a workspace.
func UnmarshalWorkspace(data []byte) (*Workspace, error) {
	return ReadWorkspace(bytes.NewReader(data))
}

// WriteWorkspace writes a workspace as JSON to an io.Writer. A zero version
// is stamped with FormatVersion.
func WriteWorkspace(ws *Workspace, w io.Writer) error {
	if ws.Version == 0 {
		ws.Version = FormatVersion
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ws); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadWorkspace decodes a JSON workspace from an io.Reader. Files without a
// version are read as the current version; newer versions are rejected.
func ReadWorkspace(r io.Reader) (*Workspace, error) {
	var ws Workspace
	if err := json.NewDecoder(r).Decode(&ws); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if ws.Version == 0 {
		ws.Version = FormatVersion
	}
	if ws.Version > FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, ws.Version)
	}
	return &ws, nil
}

// WriteWorkspaceFile writes a workspace to path atomically: the data goes to
// a temporary file in the same directory which is then renamed.
func WriteWorkspaceFile(ws *Workspace, path string) error {
	data, err := MarshalWorkspace(ws)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".workspace-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// ReadWorkspaceFile reads a workspace from a JSON file.
func ReadWorkspaceFile(path string) (*Workspace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadWorkspace(f)
}

// =============================================================================
// Render Graph and Layout Serialization
// =============================================================================

// MarshalRenderGraph serializes a render graph to indented JSON bytes.
func MarshalRenderGraph(g RenderGraph) ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}

// UnmarshalRenderGraph deserializes JSON bytes into a render graph.
func UnmarshalRenderGraph(data []byte) (RenderGraph, error) {
	var g RenderGraph
	if err := json.Unmarshal(data, &g); err != nil {
		return RenderGraph{}, fmt.Errorf("unmarshal render graph: %w", err)
	}
	return g, nil
}

// MarshalLayout serializes a Layout to indented JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout and checks that a
// root is named.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Root == "" {
		return Layout{}, fmt.Errorf("layout must name a root")
	}
	return l, nil
}
