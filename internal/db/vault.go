package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babylonlabs-io/staking-ledger/internal/db/model"
)

func (db *Database) SaveNewVault(ctx context.Context, vault *model.VaultRecord) error {
	_, err := db.collection(model.VaultCollection).InsertOne(ctx, vault)
	if err != nil {
		var writeErr mongo.WriteException
		if errors.As(err, &writeErr) {
			for _, e := range writeErr.WriteErrors {
				if mongo.IsDuplicateKeyError(e) {
					return &DuplicateKeyError{
						Key:     vault.Authority,
						Message: "vault already exists",
					}
				}
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetVault(ctx context.Context, authority string) (*model.VaultRecord, error) {
	return db.findVault(ctx, authority)
}

func (db *Database) findVault(ctx context.Context, authority string) (*model.VaultRecord, error) {
	var vault model.VaultRecord
	err := db.collection(model.VaultCollection).
		FindOne(ctx, bson.M{"_id": authority}).
		Decode(&vault)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     authority,
				Message: "vault not found",
			}
		}
		return nil, err
	}
	return &vault, nil
}

func (db *Database) ListVaults(ctx context.Context) ([]*model.VaultRecord, error) {
	opts := options.Find().SetSort(bson.M{"_id": 1})
	cursor, err := db.collection(model.VaultCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var vaults []*model.VaultRecord
	if err := cursor.All(ctx, &vaults); err != nil {
		return nil, err
	}
	return vaults, nil
}

// GetVaultSnapshot reads the vault and sums its stake records inside one
// snapshot transaction, so in-flight operations are either fully counted or
// not at all.
func (db *Database) GetVaultSnapshot(ctx context.Context, authority string) (*VaultSnapshot, error) {
	var snapshot *VaultSnapshot
	err := db.withTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		vault, err := db.findVault(sessCtx, authority)
		if err != nil {
			return err
		}

		sum, err := db.sumStakeByVault(sessCtx, authority)
		if err != nil {
			return err
		}

		snapshot = &VaultSnapshot{
			Vault:        *vault,
			StakedSum:    sum.TotalStakedAmount,
			StakeRecords: sum.StakeRecords,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (db *Database) sumStakeByVault(ctx context.Context, authority string) (*model.VaultStakeSum, error) {
	pipeline := bson.A{
		bson.M{
			"$match": bson.M{
				"vault": authority,
			},
		},
		bson.M{
			"$group": bson.M{
				"_id":                 "$vault",
				"total_staked_amount": bson.M{"$sum": "$staked_amount"},
				"stake_records":       bson.M{"$sum": 1},
			},
		},
	}

	cursor, err := db.collection(model.StakeRecordCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sum := &model.VaultStakeSum{Vault: authority}
	if cursor.Next(ctx) {
		if err := cursor.Decode(sum); err != nil {
			return nil, err
		}
	}
	return sum, cursor.Err()
}
