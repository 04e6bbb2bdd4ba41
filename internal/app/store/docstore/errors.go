// internal/app/store/docstore/errors.go
package docstore

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// Server error codes that mean the caller is not allowed to read or write.
// 13 = Unauthorized, 18 = AuthenticationFailed.
func isPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		if ce.Code == 13 || ce.Code == 18 {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not authorized") || strings.Contains(msg, "unauthorized")
}

// Server error codes raised when a sort cannot be satisfied without an index
// the collection does not have. 291 = NoQueryExecutionPlans, 292 = sort
// exceeded the memory limit with allowDiskUse off (the classic missing-index
// failure on blocking sorts), 17144 is the legacy form of the same.
func isSortUnsupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 291, 292, 17144:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sort exceeded memory limit") ||
		strings.Contains(msg, "no query solutions") ||
		strings.Contains(msg, "add an index")
}
