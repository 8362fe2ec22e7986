package cli

import (
	"bufio"
	"context"
	"os"
)

// Root runs the interactive loop until the user exits or input ends.
func (a *App) Root(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)

	statusFn := func() string {
		if a.isUnlocked(ctx) {
			return "unlocked"
		}
		return "locked"
	}

	runREPL(ctx, a, statusFn, scanner)
}
