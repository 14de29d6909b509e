package mysql

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// erDupEntry is the server error for a primary or unique key collision.
const erDupEntry = 1062

// isAlreadyClaimed reports whether an insert into processed_interactions
// collided with an existing interaction id.
func isAlreadyClaimed(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == erDupEntry
}
