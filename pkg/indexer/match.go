package indexer

import "github.com/chronicle-go/chronicle/pkg/types"

// CreatedBefore/CreatedAfter are not evaluated: the output store tracks
// only the booking slot, not a wall-clock creation timestamp, so a query
// that sets them matches as if they were absent.

// compileMatch turns a FilterSet into the predicate
// storage.Store.ScanOutputsByBookedSlot walks the booked-slot index with.
// includeSpent controls whether a spent output (as of ledgerIndex) is
// still a candidate (§4.5).
func compileMatch(filter types.FilterSet, ledgerIndex types.SlotIndex, includeSpent bool, features types.FeaturesFn) func(*types.OutputDocument) bool {
	return func(doc *types.OutputDocument) bool {
		if doc.SlotBooked > ledgerIndex {
			return false
		}
		if !includeSpent && doc.SpentMetadata != nil && doc.SpentMetadata.SlotSpent <= ledgerIndex {
			return false
		}
		if filter.Address != nil && doc.Address != *filter.Address {
			return false
		}

		f, err := features(doc.RawOutput)
		if err != nil {
			return false
		}

		if filter.HasNativeToken != nil && f.HasNativeToken != *filter.HasNativeToken {
			return false
		}
		if filter.NativeTokenId != nil && f.NativeTokenId != *filter.NativeTokenId {
			return false
		}
		if filter.StorageDepositReturn != nil && f.HasStorageDepositReturn != *filter.StorageDepositReturn {
			return false
		}
		if filter.StorageReturnAddress != nil && f.StorageReturnAddress != *filter.StorageReturnAddress {
			return false
		}
		if filter.HasTimelock != nil && f.HasTimelock != *filter.HasTimelock {
			return false
		}
		if filter.TimelockBefore != nil && !(f.HasTimelock && f.TimelockSlot < *filter.TimelockBefore) {
			return false
		}
		if filter.TimelockAfter != nil && !(f.HasTimelock && f.TimelockSlot > *filter.TimelockAfter) {
			return false
		}
		if filter.HasExpiration != nil && f.HasExpiration != *filter.HasExpiration {
			return false
		}
		if filter.ExpiresBefore != nil && !(f.HasExpiration && f.ExpirationSlot < *filter.ExpiresBefore) {
			return false
		}
		if filter.ExpiresAfter != nil && !(f.HasExpiration && f.ExpirationSlot > *filter.ExpiresAfter) {
			return false
		}
		if filter.ExpirationReturnAddr != nil && f.ExpirationReturnAddress != *filter.ExpirationReturnAddr {
			return false
		}
		if filter.Sender != nil && f.Sender != *filter.Sender {
			return false
		}
		if filter.Issuer != nil && f.Issuer != *filter.Issuer {
			return false
		}
		if filter.Tag != nil && f.Tag != *filter.Tag {
			return false
		}
		if filter.UnlockableBy != nil {
			slot := ledgerIndex
			if filter.UnlockableAtSlot != nil {
				slot = *filter.UnlockableAtSlot
			}
			if !f.UnlockableBy(*filter.UnlockableBy, doc.Address, slot) {
				return false
			}
		}
		return true
	}
}
