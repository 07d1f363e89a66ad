package main

import (
	"github.com/jackzampolin/dossier/internal/api"
	"github.com/jackzampolin/dossier/internal/server/endpoints"
)

var serverURL string

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	top := api.NewRegistry()
	top.Register(&endpoints.HealthEndpoint{})
	top.Register(&endpoints.ReadyEndpoint{})
	top.Register(&endpoints.StatusEndpoint{})
	apiCmd := top.BuildCommands(getServerURL)

	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	groups := []struct {
		use, short string
		endpoints  []api.Endpoint
	}{
		{"sessions", "Assembly session commands", endpoints.SessionCommands()},
		{"groups", "Section and separator commands", endpoints.GroupCommands()},
		{"pages", "Page commands", endpoints.PageCommands()},
		{"exports", "Server-side export commands", endpoints.ExportCommands()},
	}
	for _, g := range groups {
		reg := api.NewRegistry()
		for _, ep := range g.endpoints {
			reg.Register(ep)
		}
		apiCmd.AddCommand(reg.BuildGroup(g.use, g.short, getServerURL))
	}

	rootCmd.AddCommand(apiCmd)
}
