package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
)

func (db *Database) SaveNewStakeRecord(ctx context.Context, record *model.StakeRecord) error {
	return db.withTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		// records must reference an existing vault
		if _, err := db.findVault(sessCtx, record.Vault); err != nil {
			return err
		}

		_, err := db.collection(model.StakeRecordCollection).InsertOne(sessCtx, record)
		if err != nil {
			var writeErr mongo.WriteException
			if errors.As(err, &writeErr) {
				for _, e := range writeErr.WriteErrors {
					if mongo.IsDuplicateKeyError(e) {
						return &DuplicateKeyError{
							Key:     record.Participant,
							Message: "stake record already exists",
						}
					}
				}
			}
			return err
		}
		return nil
	})
}

func (db *Database) GetStakeRecord(ctx context.Context, participant string) (*model.StakeRecord, error) {
	return db.findStakeRecord(ctx, participant)
}

func (db *Database) findStakeRecord(ctx context.Context, participant string) (*model.StakeRecord, error) {
	var record model.StakeRecord
	err := db.collection(model.StakeRecordCollection).
		FindOne(ctx, bson.M{"_id": participant}).
		Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     participant,
				Message: "stake record not found",
			}
		}
		return nil, err
	}
	return &record, nil
}

func (db *Database) UpdateStakeRecord(ctx context.Context, participant string, fn StakeUpdateFunc) error {
	return db.withTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		record, err := db.findStakeRecord(sessCtx, participant)
		if err != nil {
			return err
		}

		vault, err := db.findVault(sessCtx, record.Vault)
		if err != nil {
			return err
		}

		totalBefore := vault.TotalStakedAmount
		if err := fn(record, vault); err != nil {
			return err
		}

		// the vault binding and key never change
		_, err = db.collection(model.StakeRecordCollection).UpdateOne(
			sessCtx,
			bson.M{"_id": participant},
			bson.M{"$set": bson.M{
				"staked_amount":    record.StakedAmount,
				"total_points":     record.TotalPoints,
				"last_update_time": record.LastUpdateTime,
				"lock_start":       record.LockStart,
				"pending_claims":   record.PendingClaims,
			}},
		)
		if err != nil {
			return err
		}

		if vault.TotalStakedAmount == totalBefore {
			return nil
		}

		// concurrent writers to the same vault hit a write conflict here and
		// are retried by the driver against the committed total
		_, err = db.collection(model.VaultCollection).UpdateOne(
			sessCtx,
			bson.M{"_id": vault.Authority},
			bson.M{"$set": bson.M{"total_staked_amount": vault.TotalStakedAmount}},
		)
		return err
	})
}

func (db *Database) ListPendingClaims(ctx context.Context) ([]*model.StakeRecord, error) {
	filter := bson.M{"pending_claims.0": bson.M{"$exists": true}}
	opts := options.Find().SetSort(bson.M{"_id": 1})

	cursor, err := db.collection(model.StakeRecordCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*model.StakeRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
