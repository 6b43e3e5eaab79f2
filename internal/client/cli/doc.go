// Package cli provides the interactive storefront command-line client.
//
// It wires configuration, local storage, the REST API client and the
// session/cart stores behind a line-oriented REPL. Typical flow: restore the
// previous session, start a background connectivity watcher, and execute
// user commands.
//
// Key features:
//   - Register / Login / Logout / age verification
//   - Browse products (cached locally for offline browsing)
//   - Cart: add, update, remove, clear
//   - Checkout with a redirect to the payment processor, order history
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
