package model

const VaultCollection = "vaults"

// VaultRecord is the aggregate of all stake bound to one custody authority.
type VaultRecord struct {
	Authority         string `bson:"_id" json:"authority"`
	TotalStakedAmount uint64 `bson:"total_staked_amount" json:"total_staked_amount"`
}

func NewVaultRecord(authority string) *VaultRecord {
	return &VaultRecord{Authority: authority}
}

func (v *VaultRecord) Clone() *VaultRecord {
	c := *v
	return &c
}

// VaultStakeSum is the result of summing stake records bound to a vault.
type VaultStakeSum struct {
	Vault             string `bson:"_id"`
	TotalStakedAmount uint64 `bson:"total_staked_amount"`
	StakeRecords      uint64 `bson:"stake_records"`
}
