package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ubi-economy/staking-tasks-service/internal/db/model"
	"github.com/ubi-economy/staking-tasks-service/internal/types"
)

func (db *Database) SaveTaskRun(ctx context.Context, run *types.TaskRun) error {
	database := db.Client.Database(db.DbName)
	runs := database.Collection(model.TaskRunCollection)
	document := model.NewTaskRunDocument(run)
	unresolved := model.NewUnresolvedAccountDocuments(run)

	if len(unresolved) == 0 {
		_, err := runs.InsertOne(ctx, document)
		return toDuplicateKeyError(err, run.RunID, "Task run already exists")
	}

	accounts := database.Collection(model.UnresolvedAccountCollection)
	txnFunc := func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := runs.InsertOne(sessCtx, document); err != nil {
			return nil, err
		}
		return accounts.InsertMany(sessCtx, unresolved)
	}
	_, err := TxWithRetries(ctx, db.txClient, txnFunc)
	return toDuplicateKeyError(err, run.RunID, "Task run already exists")
}

// FindTaskRuns returns the runs of a task, newest first.
func (db *Database) FindTaskRuns(
	ctx context.Context, task string, paginationToken string,
) (*DbResultMap[model.TaskRunDocument], error) {
	client := db.Client.Database(db.DbName).Collection(model.TaskRunCollection)

	filter := bson.M{"task": task}
	options := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(db.cfg.MaxPaginationLimit)

	// Decode the pagination token first if it exist
	if paginationToken != "" {
		decodedToken, err := model.DecodePaginationToken[model.TaskRunPagination](paginationToken)
		if err != nil {
			return nil, &InvalidPaginationTokenError{
				Message: "Invalid pagination token",
			}
		}
		filter = bson.M{
			"task": task,
			"$or": []bson.M{
				{"started_at": bson.M{"$lt": decodedToken.StartedAt}},
				{"started_at": decodedToken.StartedAt, "_id": bson.M{"$gt": decodedToken.RunID}},
			},
		}
	}

	cursor, err := client.Find(ctx, filter, options)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var runs []model.TaskRunDocument
	if err = cursor.All(ctx, &runs); err != nil {
		return nil, err
	}

	return toResultMapWithPaginationToken(db.cfg, runs, model.BuildTaskRunPaginationToken)
}

func (db *Database) FindLatestTaskRun(ctx context.Context, task string) (*model.TaskRunDocument, error) {
	client := db.Client.Database(db.DbName).Collection(model.TaskRunCollection)
	opts := options.FindOne().SetSort(bson.D{{Key: "started_at", Value: -1}})

	var run model.TaskRunDocument
	err := client.FindOne(ctx, bson.M{"task": task}, opts).Decode(&run)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     task,
				Message: "No run found for the given task",
			}
		}
		return nil, err
	}
	return &run, nil
}

func (db *Database) FindUnresolvedAccounts(ctx context.Context, runID string) ([]model.UnresolvedAccountDocument, error) {
	client := db.Client.Database(db.DbName).Collection(model.UnresolvedAccountCollection)

	cursor, err := client.Find(ctx, bson.M{"run_id": runID}, options.Find().SetSort(bson.M{"address": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	accounts := []model.UnresolvedAccountDocument{}
	if err = cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}
