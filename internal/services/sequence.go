package services

import (
	"fmt"

	"gorm.io/gorm"
)

// nextIdentity returns max(id)+1 for the given table, read on the caller's
// handle. Code/number assignment and the insert reserving that identity run in
// the same transaction, which is what keeps generated keys collision-free.
func nextIdentity(tx *gorm.DB, table string) (int64, error) {
	var next int64
	err := tx.Raw(fmt.Sprintf("SELECT COALESCE(MAX(id),0)+1 FROM %s", table)).Scan(&next).Error
	return next, err
}
