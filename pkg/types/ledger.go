package types

// RentStructure is the (key_bytes, data_bytes) weight pair used by storage
// deposit analytics, derived once when an output is booked.
type RentStructure struct {
	NumKeyBytes  uint64
	NumDataBytes uint64
}

// LedgerOutput is the "created" record for an output: everything known the
// instant its producing transaction is booked.
type LedgerOutput struct {
	OutputId             OutputId
	BlockId              BlockId
	SlotBooked           SlotIndex
	CommitmentIdIncluded CommitmentId
	RawOutput            []byte
	// Address is the locked address for addressable outputs; empty for
	// outputs with no single owning address (e.g. some basic outputs).
	Address Address
	Rent    RentStructure
}

// LedgerSpent wraps a LedgerOutput with the metadata recorded when it is
// consumed.
type LedgerSpent struct {
	Output             LedgerOutput
	CommitmentIdSpent  CommitmentId
	TransactionIdSpent TransactionID
	SlotSpent          SlotIndex
}

// SpentMetadata is the embedded sub-document OutputDocument carries once an
// output has been consumed.
type SpentMetadata struct {
	CommitmentIdSpent  CommitmentId
	TransactionIdSpent TransactionID
	SlotSpent          SlotIndex
}

// OutputDocument is the store representation of an output: the LedgerOutput
// fields plus an optional spent_metadata. It is never deleted during normal
// operation; only prunes and corruption-recovery truncations remove rows.
type OutputDocument struct {
	OutputId             OutputId
	BlockId              BlockId
	SlotBooked           SlotIndex
	CommitmentIdIncluded CommitmentId
	RawOutput            []byte
	Address              Address
	Rent                 RentStructure
	SpentMetadata        *SpentMetadata
}

// IsUnspentAt reports whether this output is unspent as of ledgerIndex,
// the universal filter for analytic reads (§4.2): booked no later than
// ledgerIndex and either never spent or spent strictly after it.
func (d *OutputDocument) IsUnspentAt(ledgerIndex SlotIndex) bool {
	if d.SlotBooked > ledgerIndex {
		return false
	}
	if d.SpentMetadata == nil {
		return true
	}
	return d.SpentMetadata.SlotSpent > ledgerIndex
}

// AmountFn extracts the deposited base-token amount from the raw output
// bytes. The wire format is out of scope here; callers that need real
// amounts parse RawOutput with the protocol decoder. Nothing in Chronicle
// calls through this type; the store's analytics read amounts with their
// own fixed big-endian reader.
type AmountFn func(rawOutput []byte) (uint64, error)

func NewOutputDocument(o LedgerOutput) *OutputDocument {
	return &OutputDocument{
		OutputId:             o.OutputId,
		BlockId:              o.BlockId,
		SlotBooked:           o.SlotBooked,
		CommitmentIdIncluded: o.CommitmentIdIncluded,
		RawOutput:            o.RawOutput,
		Address:              o.Address,
		Rent:                 o.Rent,
	}
}

// MarkSpent applies a LedgerSpent's spend metadata to the document in
// place. Calling it twice with the same arguments is a no-op in effect:
// the resulting document is identical.
func (d *OutputDocument) MarkSpent(s LedgerSpent) {
	d.SpentMetadata = &SpentMetadata{
		CommitmentIdSpent:  s.CommitmentIdSpent,
		TransactionIdSpent: s.TransactionIdSpent,
		SlotSpent:          s.SlotSpent,
	}
}

// RichAddress is one row of the get_richest_addresses analytics snapshot.
type RichAddress struct {
	Address Address
	Balance uint64
}

// TokenBucket is one row of the get_token_distribution analytics snapshot.
type TokenBucket struct {
	TokenId     string
	OutputCount int
	TotalAmount uint64
}
