package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Services pass it through so multi-row work (a lifecycle transition plus
// its field updates, a message write plus its lookups) shares one
// transaction. When Tx is nil each repo falls back to its own handle and
// the operation runs standalone; detached side effects such as post-commit
// summary generation rely on that by passing a Context with only Ctx set.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}
