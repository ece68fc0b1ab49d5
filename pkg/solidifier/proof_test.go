package solidifier

import (
	"encoding/json"
	"testing"

	"github.com/chronicle-go/chronicle/pkg/types"
)

// testBlockIds returns 7 distinct block ids, enough to exercise every
// branch of computeProof's recursive split (a non-power-of-two count, per
// the Rust fixture this is modeled on).
func testBlockIds() []types.BlockId {
	ids := make([]types.BlockId, 7)
	for i := range ids {
		var h [32]byte
		h[0] = byte(i + 1)
		ids[i] = types.BlockId{Hash: h, SlotIndex: types.SlotIndex(i)}
	}
	return ids
}

func TestCreateProofRootMatchesHashBlockIds(t *testing.T) {
	ids := testBlockIds()
	root := hashBlockIds(ids)

	for index, chosen := range ids {
		proof, err := CreateProof(ids, chosen)
		if err != nil {
			t.Fatalf("index %d: CreateProof: %v", index, err)
		}
		if got := proof.Hash(); got != root {
			t.Fatalf("index %d: proof hash %x != merkle root %x", index, got, root)
		}
		if !proof.ContainsBlockId(chosen) {
			t.Fatalf("index %d: proof does not contain its own chosen block id", index)
		}
	}
}

func TestCreateProofOnlyContainsChosenLeaf(t *testing.T) {
	ids := testBlockIds()
	proof, err := CreateProof(ids, ids[3])
	if err != nil {
		t.Fatalf("CreateProof: %v", err)
	}
	for i, id := range ids {
		if i == 3 {
			continue
		}
		if proof.ContainsBlockId(id) {
			t.Fatalf("proof for index 3 unexpectedly contains index %d", i)
		}
	}
}

func TestCreateProofRejectsIdNotInSet(t *testing.T) {
	ids := testBlockIds()
	other := types.BlockId{Hash: [32]byte{0xFF}, SlotIndex: 999}
	if _, err := CreateProof(ids, other); err == nil {
		t.Fatal("expected error for a block id outside the past cone")
	}
}

func TestCreateProofRequiresAtLeastTwoBlockIds(t *testing.T) {
	ids := testBlockIds()[:1]
	if _, err := CreateProof(ids, ids[0]); err == nil {
		t.Fatal("expected error for a single-block-id past cone")
	}
}

func TestMerkleProofDtoRoundTrip(t *testing.T) {
	ids := testBlockIds()
	for index, chosen := range ids {
		proof, err := CreateProof(ids, chosen)
		if err != nil {
			t.Fatalf("index %d: CreateProof: %v", index, err)
		}

		data, err := json.Marshal(proof.ToDto())
		if err != nil {
			t.Fatalf("index %d: marshal: %v", index, err)
		}
		var dto MerkleProofDto
		if err := json.Unmarshal(data, &dto); err != nil {
			t.Fatalf("index %d: unmarshal: %v", index, err)
		}
		roundTripped, err := FromDto(dto)
		if err != nil {
			t.Fatalf("index %d: FromDto: %v", index, err)
		}
		if roundTripped.Hash() != proof.Hash() {
			t.Fatalf("index %d: round-tripped proof hash differs", index)
		}
		if !roundTripped.ContainsBlockId(chosen) {
			t.Fatalf("index %d: round-tripped proof lost its chosen block id", index)
		}
	}
}

func TestLargestPowerOfTwo(t *testing.T) {
	cases := map[int]int{2: 1, 3: 2, 4: 2, 5: 4, 7: 4, 8: 4, 9: 8}
	for n, want := range cases {
		if got := largestPowerOfTwo(n); got != want {
			t.Errorf("largestPowerOfTwo(%d) = %d, want %d", n, got, want)
		}
	}
}
