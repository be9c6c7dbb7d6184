package internal

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateRunID returns a time-ordered identifier for one pipeline invocation.
// It falls back to epochMillis_md5(seed)[:8] if the UUID source fails.
func GenerateRunID(seed string) string {
	id, err := uuid.NewV7()
	if err == nil {
		return id.String()
	}

	epochMillis := time.Now().UnixNano() / 1000000
	hash := md5.Sum([]byte(seed))
	return fmt.Sprintf("%d_%s", epochMillis, hex.EncodeToString(hash[:])[:8])
}
