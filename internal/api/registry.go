package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Registry holds all registered endpoints.
type Registry struct {
	endpoints []Endpoint
}

// NewRegistry creates a new endpoint registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an endpoint to the registry.
func (r *Registry) Register(ep Endpoint) {
	r.endpoints = append(r.endpoints, ep)
}

// RegisterRoutes registers all endpoint HTTP routes with the given mux.
// initMiddleware wraps handlers that require full server initialization.
func (r *Registry) RegisterRoutes(mux *http.ServeMux, initMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		if ep.RequiresInit() {
			handler = initMiddleware(handler)
		}
		mux.HandleFunc(method+" "+path, handler)
	}
}

// BuildCommands returns a cobra.Command tree for all registered endpoints.
// Commands are organized by their URL path structure.
// getServerURL is called at runtime to get the server URL.
func (r *Registry) BuildCommands(getServerURL func() string) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call the running Dossier server via HTTP.

These commands require a running server (dossier serve).
Use --server to specify a custom server URL.

Examples:
  dossier api health                              # Check server health
  dossier api sessions create                     # Start a new assembly session
  dossier api sessions load <session> a.pdf       # Load a document as a new section
  dossier api sessions export <session> -f a.pdf  # Download the assembled document`,
	}

	for _, ep := range r.endpoints {
		apiCmd.AddCommand(ep.Command(getServerURL))
	}

	return apiCmd
}

// BuildGroup returns a command named use with one subcommand per
// registered endpoint.
func (r *Registry) BuildGroup(use, short string, getServerURL func() string) *cobra.Command {
	cmd := &cobra.Command{Use: use, Short: short}
	for _, ep := range r.endpoints {
		cmd.AddCommand(ep.Command(getServerURL))
	}
	return cmd
}

// Endpoints returns all registered endpoints.
func (r *Registry) Endpoints() []Endpoint {
	return r.endpoints
}
