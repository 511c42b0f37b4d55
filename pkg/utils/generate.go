package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ==================== UUID & TOKEN ====================

func GenerateUUID() uuid.UUID {
	return uuid.New()
}

func ParseUUID(uuidStr string) (uuid.UUID, error) {
	return uuid.Parse(uuidStr)
}

// ==================== TRANSACTION ID ====================

// GenerateTransactionID formats TXN<yyyyMMddHHmmssSSS><suffix>. The suffix is
// drawn by the caller so the random source stays injectable.
func GenerateTransactionID(now time.Time, suffix int) string {
	now = now.UTC()
	return fmt.Sprintf("TXN%s%03d%04d", now.Format("20060102150405"), now.Nanosecond()/int(time.Millisecond), suffix%10000)
}
