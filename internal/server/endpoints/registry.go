package endpoints

import (
	"github.com/jackzampolin/dossier/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	// MaxUploadBytes caps a document upload (default: DefaultMaxUploadBytes)
	MaxUploadBytes int64
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Session endpoints
		&CreateSessionEndpoint{},
		&ListSessionsEndpoint{},
		&GetSessionEndpoint{},
		&DeleteSessionEndpoint{},
		&NoticesEndpoint{},

		// Document endpoints
		&LoadDocumentEndpoint{MaxBytes: cfg.MaxUploadBytes},

		// Group endpoints
		&AddGroupEndpoint{},
		&UpdateGroupEndpoint{},
		&DeleteGroupEndpoint{},
		&MoveGroupEndpoint{},
		&DropGroupEndpoint{},
		&DragEndpoint{},

		// Page endpoints
		&DeletePageEndpoint{},
		&MovePageEndpoint{},
		&DropPageEndpoint{},
		&ThumbnailEndpoint{},

		// Output endpoints
		&ExportEndpoint{},
		&SaveExportEndpoint{},
		&ExportSectionsEndpoint{},
		&UploadEndpoint{},
		&AssembleEndpoint{},
	}
}

// SessionCommands returns endpoints for session operations.
// This groups session-related commands under "sessions" subcommand.
func SessionCommands() []api.Endpoint {
	return []api.Endpoint{
		&CreateSessionEndpoint{},
		&ListSessionsEndpoint{},
		&GetSessionEndpoint{},
		&DeleteSessionEndpoint{},
		&NoticesEndpoint{},
		&LoadDocumentEndpoint{},
		&DragEndpoint{},
		&ExportEndpoint{},
		&UploadEndpoint{},
		&AssembleEndpoint{},
	}
}

// GroupCommands returns endpoints for group operations.
// This groups group-related commands under "groups" subcommand.
func GroupCommands() []api.Endpoint {
	return []api.Endpoint{
		&AddGroupEndpoint{},
		&UpdateGroupEndpoint{},
		&DeleteGroupEndpoint{},
		&MoveGroupEndpoint{},
		&DropGroupEndpoint{},
	}
}

// PageCommands returns endpoints for page operations.
// This groups page-related commands under "pages" subcommand.
func PageCommands() []api.Endpoint {
	return []api.Endpoint{
		&DeletePageEndpoint{},
		&MovePageEndpoint{},
		&DropPageEndpoint{},
		&ThumbnailEndpoint{},
	}
}

// ExportCommands returns endpoints for saving exports on the server.
// This groups them under "exports" subcommand.
func ExportCommands() []api.Endpoint {
	return []api.Endpoint{
		&SaveExportEndpoint{},
		&ExportSectionsEndpoint{},
	}
}
