package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers the stores react to.
const (
	mysqlErrDuplicateEntry  = 1062 // ER_DUP_ENTRY
	mysqlErrRowIsReferenced = 1451 // ER_ROW_IS_REFERENCED_2 (parent delete blocked)
	mysqlErrNoReferencedRow = 1452 // ER_NO_REFERENCED_ROW_2 (child insert, parent missing)
)

// mysqlErrNumber returns the server error number of err, or 0 when err is
// not a *mysql.MySQLError.
func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}
