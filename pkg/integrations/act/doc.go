// Package act provides a client for the ACT threat intelligence platform API.
//
// # Overview
//
// The client reads the platform's type metadata, the object types and fact
// types that make up its data model, and manages origins:
//
//	client, err := act.NewClient(act.Config{BaseURL: "https://act.example.com", UserID: 1})
//	schema, err := client.FetchSchema(ctx)
//
// # Requests
//
// Every request carries the ACT-User-ID header and asks for JSON. HTTP basic
// auth and an extra CA certificate are optional. Responses use the
// platform's {"data": ...} envelope; null list entries are skipped.
//
// # Endpoints
//
//   - GET    /v1/objectType
//   - GET    /v1/factType
//   - GET    /v1/origin
//   - POST   /v1/origin
//   - DELETE /v1/origin/uuid/{id}
package act
