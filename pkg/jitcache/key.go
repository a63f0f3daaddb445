package jitcache

import (
	"encoding/binary"
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/blake2b"

	"bpfjit/pkg/bpf"
	"bpfjit/pkg/helpers"
	"bpfjit/pkg/ppc64"
)

// Key identifies a compiled image: the digest of everything the generated words depend on.
type Key [32]byte

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// KeyFor digests the target, the helper layout and the bytecode. The TOC is not part of the
// key because it only appears in the descriptor, which is rewritten on every install.
func KeyFor(target ppc64.Target, hs []helpers.Helper, prog bpf.Program) Key {
	h, _ := blake2b.New256(nil)
	writeUint(h, uint64(schemaVersion))
	writeString(h, target.Name)
	writeUint(h, uint64(target.ABI))
	writeUint(h, uint64(len(hs)))
	for _, hp := range hs {
		writeUint(h, uint64(uint32(hp.ID)))
		writeUint(h, hp.Addr)
		compat := uint64(0)
		if hp.JITCompatible {
			compat = 1
		}
		writeUint(h, compat)
	}
	writeUint(h, uint64(len(prog)))
	h.Write(prog.Marshal())

	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

func writeUint(h hash.Hash, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	h.Write(b[:])
}

func writeString(h hash.Hash, s string) {
	writeUint(h, uint64(len(s)))
	h.Write([]byte(s))
}
