// Package docs carries the general API annotations. go generate writes the
// OpenAPI spec to ./swagger.
//
// Dossier API
//
//	@title			Dossier API
//	@version		1.0
//	@description	Personnel file assembly: load PDFs into sections, reorder pages, export, upload and assemble remote files.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/dossier
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/dossier/serve.go -o ./swagger --parseDependency --parseInternal
