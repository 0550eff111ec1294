package postgresadapter

import "gorm.io/gorm"

// Migrate creates the claim-service tables when they do not exist yet.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&distributorConfigModel{},
		&claimRecordModel{},
		&outboxModel{},
	)
}
