package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateOrderID builds a readable order reference, e.g. ord_1735689600_004217.
func GenerateOrderID() string {
	timestamp := time.Now().Unix()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(999999))
	return fmt.Sprintf("ord_%d_%06d", timestamp, randomNum.Int64())
}

// GenerateTicketSerial builds the per-ticket admission code printed under the QR.
func GenerateTicketSerial(eventID string, serial int) string {
	return fmt.Sprintf("%s-%06d", eventID, serial)
}
