package service

import (
	accdom "herald/internal/services/accounts/domain"
)

// snapshot captures the security relevant state before extraction runs
type snapshot struct {
	exists   bool
	key      string
	protocol accdom.Protocol
}

func snapshotOf(acc *accdom.Account) snapshot {
	if acc == nil {
		return snapshot{}
	}
	return snapshot{
		exists:   true,
		key:      acc.PublicKey,
		protocol: acc.Protocol,
	}
}

// changes are the independent signals driving side effect dispatch.
// Suspension edges are recorded where the toggle happens, in applySuspension,
// so a document declaring suspension on first contact still propagates
type changes struct {
	keyRotated      bool
	protocolChanged bool
	suspended       bool
	unsuspended     bool
}

// diff compares the pre-extraction snapshot against the committed account.
// A key or protocol observed for the first time is not a change
func diff(before snapshot, acc *accdom.Account) changes {
	var c changes
	if !before.exists {
		return c
	}
	c.keyRotated = before.key != "" && acc.PublicKey != "" && before.key != acc.PublicKey
	c.protocolChanged = before.protocol != "" && before.protocol != acc.Protocol
	return c
}
