package auth

import (
	"strconv"
	"strings"
)

const (
	accountPrefix = "u:"
	guestPrefix   = "g:"
)

// PlayerID is the persistent table id of a registered account.
func PlayerID(accountID uint64) string {
	return accountPrefix + strconv.FormatUint(accountID, 10)
}

// GuestID is the persistent table id of an anonymous player.
func GuestID(clientID string) string {
	return guestPrefix + strings.TrimSpace(clientID)
}

// ParsePlayerID returns the account behind a PlayerID. Guest and bot ids
// report false.
func ParsePlayerID(id string) (uint64, bool) {
	raw, ok := strings.CutPrefix(id, accountPrefix)
	if !ok {
		return 0, false
	}
	accountID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || accountID == 0 {
		return 0, false
	}
	return accountID, true
}
