package postgresadapter

import "time"

const distributorConfigRowID = 1

// distributorConfigModel is the singleton configuration row. The root and
// threshold mutate in place; claim records never reference this row.
type distributorConfigModel struct {
	ID            uint      `gorm:"column:id;primaryKey"`
	TokenAddress  string    `gorm:"column:token_address"`
	Administrator string    `gorm:"column:administrator"`
	MerkleRoot    string    `gorm:"column:merkle_root"`
	Threshold     uint64    `gorm:"column:threshold"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (distributorConfigModel) TableName() string {
	return "distributor_config"
}

type claimRecordModel struct {
	Address    string    `gorm:"column:address;primaryKey"`
	ClaimCount uint64    `gorm:"column:claim_count"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (claimRecordModel) TableName() string {
	return "claim_records"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "claim_outbox"
}
