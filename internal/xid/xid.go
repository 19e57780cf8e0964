package xid

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New returns a prefixed random identifier.
func New(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// NewInvoiceNumber builds INV-<YYYYMMDD>-<TOKEN> where TOKEN is the first
// eight characters of a random UUID, upper-cased.
func NewInvoiceNumber(at time.Time) string {
	return "INV-" + at.Format("20060102") + "-" + strings.ToUpper(uuid.NewString()[:8])
}
