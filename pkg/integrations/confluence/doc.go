// Package confluence uploads files as attachments to Confluence pages.
//
// [Client.Attach] behaves like a file upload in the Confluence UI: when the
// page already has an attachment with the same file name a new version of it
// is uploaded, otherwise a new attachment is created. Proxy environment
// variables are ignored so that wikis on the internal network stay reachable
// from hosts with an outbound proxy configured.
package confluence
