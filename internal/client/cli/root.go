package cli

import (
	"context"
	"fmt"
	"strings"
)

// getStatus renders the prompt status, e.g. "(alice online)".
func (a *App) getStatus() string {
	var parts []string
	snap := a.session.Snapshot()
	if snap.Identity != nil {
		parts = append(parts, snap.Identity.Username)
	}
	if cart, ok := a.cart.Snapshot(); ok && !cart.IsEmpty() {
		parts = append(parts, fmt.Sprintf("cart:%d", len(cart.Items)))
	}
	if m := a.currentMode(); m != "" {
		parts = append(parts, string(m))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Root restores the previous session, starts the connectivity watcher and
// runs the REPL on stdin until the user exits.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to the storefront CLI (type 'help' for commands)")

	a.checkOnline(ctx)
	if err := a.session.Restore(ctx); err != nil {
		a.log.Warn(ctx, "could not restore session", "error", err)
	}
	if snap := a.session.Snapshot(); snap.Identity != nil {
		printlnFn("Welcome back,", snap.Identity.Username)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(watchCtx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}
