package db

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ubi-economy/staking-tasks-service/internal/db/model"
	"github.com/ubi-economy/staking-tasks-service/internal/types"
)

// DBClient is the task-run audit store. Engines only write to it.
type DBClient interface {
	Ping(ctx context.Context) error
	// SaveTaskRun stores the run and, in the same transaction, every account
	// the run left unresolved.
	SaveTaskRun(ctx context.Context, run *types.TaskRun) error
	FindTaskRuns(
		ctx context.Context, task string, paginationToken string,
	) (*DbResultMap[model.TaskRunDocument], error)
	FindLatestTaskRun(ctx context.Context, task string) (*model.TaskRunDocument, error)
	FindUnresolvedAccounts(ctx context.Context, runID string) ([]model.UnresolvedAccountDocument, error)
}

type DBTransactionClient interface {
	StartSession(opts ...*options.SessionOptions) (DBSession, error)
}

type DBSession interface {
	EndSession(ctx context.Context)
	WithTransaction(
		ctx context.Context,
		fn func(sessCtx mongo.SessionContext) (interface{}, error),
		opts ...*options.TransactionOptions,
	) (interface{}, error)
}
