// Package cli implements the refgate command-line client.
//
// Commands:
//   - send <file>: request a signed credential, PUT the file straight to the
//     store, then ask the gateway to start the analysis. Any failure after the
//     credential is issued triggers a best-effort cleanup request.
//   - upload <file>: let the gateway store the file and start the analysis.
//   - status <requestId>: show the recorded analysis attempt.
//   - cleanup --bucket --path: ask the gateway to remove a stored object.
//
// A progress spinner runs while network calls are in flight and is always
// stopped before the final result is printed, panics included.
package cli
