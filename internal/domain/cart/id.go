// internal/domain/cart/id.go
package cart

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewItemID returns a time-ordered id for a locally created line.
func NewItemID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ServerItemID builds the display id of a line rebuilt from the server cart.
// It is only a local list key: unique enough within one reconciliation, never sent anywhere.
func ServerItemID(now time.Time, productID int64) string {
	return fmt.Sprintf("srv-%d-%d", now.UnixNano(), productID)
}
