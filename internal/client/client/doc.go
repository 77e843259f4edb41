// Package client is the CLI side of the refgate HTTP API.
//
// # Overview
//
// Client is the contract the commands use; HTTPClient implements it over
// the gateway's JSON and multipart endpoints. PutObject sends bytes straight
// to the storage provider using a signed credential and never touches the
// gateway.
//
// # Error Handling
//
// Non-2xx replies, and 2xx replies whose envelope reports failure, come back
// as *APIError carrying the status, the machine code and any validation
// issues. Connection failures wrap ErrUnavailable. A credential whose client
// deadline has passed is rejected locally with ErrCredentialExpired.
package client
