// Package contractcheck verifies the output of programs that deliberately
// violate a contract check.
package contractcheck

// Version is the release version reported by the CLI and the MCP server.
const Version = "0.3.0"
