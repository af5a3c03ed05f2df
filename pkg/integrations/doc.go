// Package integrations provides HTTP clients for the services actgraph talks to.
//
// # Overview
//
// Each service has its own subpackage built on the shared [Client]:
//
//   - [act]: the ACT platform API (type metadata and origins)
//   - [confluence]: the Confluence REST API (page attachments)
//
// # Shared Infrastructure
//
// [Client] handles:
//   - Base URL joining and default headers
//   - HTTP basic authentication
//   - Extra CA certificates for private deployments
//   - Mapping HTTP statuses to structured errors (see pkg/errors)
//   - Observability hooks for every request
//
// Requests are not retried: a failed run is simply re-run by its scheduler.
//
// [act]: github.com/matzehuels/actgraph/pkg/integrations/act
// [confluence]: github.com/matzehuels/actgraph/pkg/integrations/confluence
package integrations
