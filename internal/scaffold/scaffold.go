// Package scaffold writes the starter files installed by `spectrace init`:
// an annotated spectrace.yaml and the spectrace entry of .mcp.json.
package scaffold

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ConfigName is the file name of the starter configuration.
const ConfigName = "spectrace.yaml"

// MCPConfigName is the project-level MCP client configuration file.
const MCPConfigName = ".mcp.json"

//go:embed templates/spectrace.yaml
var templateFS embed.FS

// Action describes what happened to a scaffolded file.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
)

// Result records one file written (or left alone) by the scaffold.
type Result struct {
	Path   string
	Action Action
}

// StarterConfig returns the embedded starter configuration.
func StarterConfig() []byte {
	data, err := fs.ReadFile(templateFS, "templates/"+ConfigName)
	if err != nil {
		// The file is embedded at build time.
		panic(fmt.Sprintf("scaffold: embedded template missing: %v", err))
	}
	return data
}

// Init writes the starter configuration and the .mcp.json entry into dir.
// Existing files are left alone unless force is set.
func Init(dir string, force bool) ([]Result, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", abs, err)
	}

	cfg, err := WriteConfig(abs, force)
	if err != nil {
		return nil, err
	}
	mcpRes, err := MergeMCPConfig(filepath.Join(abs, MCPConfigName), force)
	if err != nil {
		return []Result{cfg}, err
	}
	return []Result{cfg, mcpRes}, nil
}

// WriteConfig writes the starter spectrace.yaml into dir.
func WriteConfig(dir string, force bool) (Result, error) {
	dest := filepath.Join(dir, ConfigName)
	res := Result{Path: dest, Action: ActionCreated}

	if _, err := os.Stat(dest); err == nil {
		if !force {
			res.Action = ActionSkipped
			return res, nil
		}
		res.Action = ActionUpdated
	}

	if err := os.WriteFile(dest, StarterConfig(), 0o644); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", dest, err)
	}
	return res, nil
}

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// mcpEntry is the MCP server configuration for the spectrace binary.
var mcpEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "spectrace",
  "args": ["serve-mcp"]
}`)

// MergeMCPConfig creates mcpPath or adds the spectrace entry to it. Entries
// for other servers are preserved.
func MergeMCPConfig(mcpPath string, force bool) (Result, error) {
	var cfg mcpConfig
	res := Result{Path: mcpPath, Action: ActionCreated}

	data, err := os.ReadFile(mcpPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Result{}, fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
		res.Action = ActionUpdated
	case !errors.Is(err, fs.ErrNotExist):
		return Result{}, fmt.Errorf("reading %s: %w", mcpPath, err)
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}
	if _, exists := cfg.MCPServers["spectrace"]; exists && !force {
		res.Action = ActionSkipped
		return res, nil
	}
	cfg.MCPServers["spectrace"] = mcpEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("marshaling %s: %w", MCPConfigName, err)
	}
	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", mcpPath, err)
	}
	return res, nil
}
