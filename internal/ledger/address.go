package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Address identifica um registro no ledger
// É derivado de forma determinística a partir de (tag, seeds)
type Address string

func (a Address) String() string { return string(a) }

// Derive calcula o endereço de um registro a partir da tag de propósito e das seeds
// Cada parte entra prefixada pelo tamanho, então ("ab","c") != ("a","bc")
func Derive(tag string, seeds ...[]byte) Address {
	h := sha256.New()
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(tag)))
	h.Write(n[:])
	h.Write([]byte(tag))
	for _, s := range seeds {
		binary.BigEndian.PutUint32(n[:], uint32(len(s)))
		h.Write(n[:])
		h.Write(s)
	}
	return Address(hex.EncodeToString(h.Sum(nil)))
}

// U64 codifica um inteiro como seed (little-endian, 8 bytes)
func U64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}
