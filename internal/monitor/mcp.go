package monitor

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/opencode-htop/octop/internal/session"
)

// ReadMCPServers parses the MCP server table out of the host tool's
// opencode.json. A server counts as enabled unless it carries an explicit
// "enabled": false. Missing or malformed config yields nil, never an error:
// the overlay just reports no servers.
func ReadMCPServers(path string) []session.MCPServer {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var hostCfg struct {
		MCP map[string]struct {
			Type    string `json:"type"`
			Enabled *bool  `json:"enabled"`
		} `json:"mcp"`
	}
	if json.Unmarshal(data, &hostCfg) != nil {
		return nil
	}
	if len(hostCfg.MCP) == 0 {
		return nil
	}

	servers := make([]session.MCPServer, 0, len(hostCfg.MCP))
	for name, entry := range hostCfg.MCP {
		servers = append(servers, session.MCPServer{
			Name:    name,
			Type:    entry.Type,
			Enabled: entry.Enabled == nil || *entry.Enabled,
		})
	}
	sort.Slice(servers, func(i, j int) bool { return servers[i].Name < servers[j].Name })
	return servers
}
