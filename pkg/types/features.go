package types

// OutputFeatures is the decoded view of an output's protocol-level unlock
// conditions and features that indexer predicates run against (address
// unlock, native token, storage-deposit-return, timelock, expiration,
// sender/issuer, tag). Chronicle does not implement the Stardust output
// deserializer (Non-goal); decoding goes through a FeaturesFn, and the
// only implementation here is NoFeatures. A protocol-level decoder plugs
// in as another FeaturesFn without touching the query layer above it.
type OutputFeatures struct {
	NativeTokenId           string
	HasNativeToken          bool
	HasStorageDepositReturn bool
	StorageReturnAddress    Address
	HasTimelock             bool
	TimelockSlot            SlotIndex
	HasExpiration           bool
	ExpirationSlot          SlotIndex
	ExpirationReturnAddress Address
	Sender                  Address
	Issuer                  Address
	Tag                     string
}

// FeaturesFn decodes OutputFeatures from an output's raw serialized bytes.
// NoFeatures is the default no-op implementation most callers wire in
// until a real protocol decoder replaces it.
type FeaturesFn func(rawOutput []byte) (OutputFeatures, error)

// NoFeatures reports every feature absent; a query that asserts presence
// of a feature never matches, a query that doesn't assert anything about
// that feature is unaffected.
func NoFeatures(rawOutput []byte) (OutputFeatures, error) {
	return OutputFeatures{}, nil
}

// UnlockableBy reports whether addr can unlock this output at slotIndex:
// the owning address always can; the expiration return address can once
// slotIndex is at or past the expiration slot.
func (f OutputFeatures) UnlockableBy(addr Address, owner Address, slotIndex SlotIndex) bool {
	if addr == owner {
		if !f.HasExpiration || slotIndex < f.ExpirationSlot {
			return true
		}
	}
	if f.HasExpiration && addr == f.ExpirationReturnAddress && slotIndex >= f.ExpirationSlot {
		return true
	}
	return false
}
