package solidifier

import (
	"encoding/hex"
	"fmt"

	"github.com/chronicle-go/chronicle/pkg/types"
	"golang.org/x/crypto/blake2b"
)

const (
	leafHashPrefix byte = 0
	nodeHashPrefix byte = 1
)

// hashLeaf hashes a terminating leaf of the tree.
func hashLeaf(data []byte) [32]byte {
	h, _ := blake2b.New256(nil)
	h.Write([]byte{leafHashPrefix})
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// hashNode hashes a subtree from its two children's hashes.
func hashNode(l, r [32]byte) [32]byte {
	h, _ := blake2b.New256(nil)
	h.Write([]byte{nodeHashPrefix})
	h.Write(l[:])
	h.Write(r[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// hashBlockIds computes the Merkle root over a past cone's block ids in
// White Flag order, the inclusion_merkle_root every CreateProof is checked
// against.
func hashBlockIds(blockIds []types.BlockId) [32]byte {
	switch len(blockIds) {
	case 0:
		h, _ := blake2b.New256(nil)
		var out [32]byte
		copy(out[:], h.Sum(nil))
		return out
	case 1:
		return hashLeaf(blockIds[0].Bytes())
	default:
		k := largestPowerOfTwo(len(blockIds))
		l := hashBlockIds(blockIds[:k])
		r := hashBlockIds(blockIds[k:])
		return hashNode(l, r)
	}
}

// largestPowerOfTwo returns the largest power of 2 less than n. Panics for
// n < 2.
func largestPowerOfTwo(n int) int {
	if n < 2 {
		panic("solidifier: largestPowerOfTwo requires n >= 2")
	}
	return 1 << (bitLength(uint32(n-1)) - 1)
}

func bitLength(n uint32) uint32 {
	length := uint32(0)
	for n != 0 {
		n >>= 1
		length++
	}
	return length
}

// Hashable is the tagged union a MerkleProof's two children take: a
// sub-proof still being expanded, a collapsed subtree hash, or the chosen
// leaf's own hash. Exactly one field is set.
type Hashable struct {
	Proof *MerkleProof
	Node  *[32]byte
	Value *[32]byte
}

func (h Hashable) hash() [32]byte {
	switch {
	case h.Proof != nil:
		return h.Proof.Hash()
	case h.Node != nil:
		return *h.Node
	case h.Value != nil:
		return *h.Value
	default:
		panic("solidifier: empty Hashable")
	}
}

func (h Hashable) containsValue(value [32]byte) bool {
	switch {
	case h.Proof != nil:
		return h.Proof.containsValue(value)
	case h.Value != nil:
		return *h.Value == value
	default:
		return false
	}
}

// MerkleProof is a proof of inclusion for one block id within a past cone's
// Merkle tree: the chosen id's path to the root, with every sibling
// subtree collapsed to its hash.
type MerkleProof struct {
	Left  Hashable
	Right Hashable
}

// Hash recomputes the root this proof was built from.
func (p *MerkleProof) Hash() [32]byte {
	return hashNode(p.Left.hash(), p.Right.hash())
}

// ContainsBlockId reports whether id is the leaf this proof was built for.
func (p *MerkleProof) ContainsBlockId(id types.BlockId) bool {
	return p.containsValue(hashLeaf(id.Bytes()))
}

func (p *MerkleProof) containsValue(value [32]byte) bool {
	return p.Left.containsValue(value) || p.Right.containsValue(value)
}

// CreateProof builds a MerkleProof for chosen within blockIds, the past
// cone's block ids in White Flag order. The chosen leaf becomes a Value
// node; every branch not on its path is collapsed to a Node hash.
func CreateProof(blockIds []types.BlockId, chosen types.BlockId) (*MerkleProof, error) {
	index := -1
	for i, id := range blockIds {
		if id == chosen {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, fmt.Errorf("solidifier: block id %s not included in past cone", chosen)
	}
	return createProofFromIndex(blockIds, index)
}

func createProofFromIndex(blockIds []types.BlockId, index int) (*MerkleProof, error) {
	n := len(blockIds)
	if n < 2 {
		return nil, fmt.Errorf("solidifier: cannot create proof for fewer than 2 block ids (got %d)", n)
	}
	if index >= n {
		return nil, fmt.Errorf("solidifier: index %d out of bounds for %d block ids", index, n)
	}
	return computeProof(blockIds, index), nil
}

// computeProof recursively builds the proof tree, following the chosen
// index down the left or right branch and collapsing whichever sibling
// subtree it doesn't enter.
func computeProof(data []types.BlockId, index int) *MerkleProof {
	n := len(data)
	if n == 2 {
		l, r := hashLeaf(data[0].Bytes()), hashLeaf(data[1].Bytes())
		if index == 0 {
			return &MerkleProof{Left: Hashable{Value: &l}, Right: Hashable{Node: &r}}
		}
		return &MerkleProof{Left: Hashable{Node: &l}, Right: Hashable{Value: &r}}
	}

	k := largestPowerOfTwo(n)
	if index < k {
		right := hashBlockIds(data[k:])
		var left Hashable
		if len(data[:k]) == 1 {
			v := hashLeaf(data[0].Bytes())
			left = Hashable{Value: &v}
		} else {
			left = Hashable{Proof: computeProof(data[:k], index)}
		}
		return &MerkleProof{Left: left, Right: Hashable{Node: &right}}
	}

	left := hashBlockIds(data[:k])
	var right Hashable
	if len(data[k:]) == 1 {
		v := hashLeaf(data[k].Bytes())
		right = Hashable{Value: &v}
	} else {
		right = Hashable{Proof: computeProof(data[k:], index-k)}
	}
	return &MerkleProof{Left: Hashable{Node: &left}, Right: right}
}

// MerkleProofDto is the JSON wire shape for a MerkleProof, mirroring the
// prefix-hex-encoded "l"/"r" fields of the legacy proof-of-inclusion API.
type MerkleProofDto struct {
	Left  HashableDto `json:"l"`
	Right HashableDto `json:"r"`
}

// HashableDto is the untagged JSON shape of a Hashable: a nested proof
// ("l"/"r"), a collapsed node hash ("h"), or the chosen leaf's hash
// ("value"). Exactly one field is populated, matched in that order on
// decode.
type HashableDto struct {
	Left  *HashableDto `json:"l,omitempty"`
	Right *HashableDto `json:"r,omitempty"`
	Hash  string       `json:"h,omitempty"`
	Value string       `json:"value,omitempty"`
}

func toDto(h Hashable) HashableDto {
	switch {
	case h.Proof != nil:
		return HashableDto{
			Left:  dtoPtr(toDto(h.Proof.Left)),
			Right: dtoPtr(toDto(h.Proof.Right)),
		}
	case h.Node != nil:
		return HashableDto{Hash: hex.EncodeToString(h.Node[:])}
	default:
		return HashableDto{Value: hex.EncodeToString(h.Value[:])}
	}
}

func dtoPtr(d HashableDto) *HashableDto { return &d }

func fromDto(d HashableDto) (Hashable, error) {
	switch {
	case d.Left != nil && d.Right != nil:
		left, err := fromDto(*d.Left)
		if err != nil {
			return Hashable{}, err
		}
		right, err := fromDto(*d.Right)
		if err != nil {
			return Hashable{}, err
		}
		return Hashable{Proof: &MerkleProof{Left: left, Right: right}}, nil
	case d.Hash != "":
		h, err := decodeHash(d.Hash)
		if err != nil {
			return Hashable{}, err
		}
		return Hashable{Node: &h}, nil
	case d.Value != "":
		h, err := decodeHash(d.Value)
		if err != nil {
			return Hashable{}, err
		}
		return Hashable{Value: &h}, nil
	default:
		return Hashable{}, fmt.Errorf("solidifier: empty HashableDto")
	}
}

func decodeHash(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("solidifier: decode hash %q: %w", s, err)
	}
	if len(b) != 32 {
		return out, fmt.Errorf("solidifier: hash %q is %d bytes, want 32", s, len(b))
	}
	copy(out[:], b)
	return out, nil
}

// ToDto converts p into its JSON wire shape.
func (p *MerkleProof) ToDto() MerkleProofDto {
	return MerkleProofDto{Left: toDto(p.Left), Right: toDto(p.Right)}
}

// FromDto reconstructs a MerkleProof from its JSON wire shape.
func FromDto(dto MerkleProofDto) (*MerkleProof, error) {
	left, err := fromDto(dto.Left)
	if err != nil {
		return nil, err
	}
	right, err := fromDto(dto.Right)
	if err != nil {
		return nil, err
	}
	return &MerkleProof{Left: left, Right: right}, nil
}
