package cmd

import (
	"log"
	"os"
)

// logger writes operation lines to stderr, tagged with the per-invocation
// correlation id minted in root.go's PersistentPreRunE.
var logger = log.New(os.Stderr, "", log.LstdFlags)

func logOp(opID, format string, args ...any) {
	logger.Printf("[%s] "+format, append([]any{opID}, args...)...)
}
