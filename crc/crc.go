// Package crc computes CRC-16 digests. The pipeline uses them to collapse
// repeated frames within a single press.
package crc

import (
	"fmt"

	"github.com/bemasher/rtlfob/parse"
)

type CRC struct {
	Name    string
	Init    uint16
	Poly    uint16
	Residue uint16

	tbl Table
}

func NewCRC(name string, init, poly, residue uint16) (crc CRC) {
	crc.Name = name
	crc.Init = init
	crc.Poly = poly
	crc.Residue = residue
	crc.tbl = NewTable(crc.Poly)

	return
}

// CCITT is the digest used for frame deduplication.
var CCITT = NewCRC("CCITT", 0xFFFF, 0x1021, 0x1D0F)

func (crc CRC) String() string {
	return fmt.Sprintf("{Name:%s Init:0x%04X Poly:0x%04X Residue:0x%04X}", crc.Name, crc.Init, crc.Poly, crc.Residue)
}

func (crc CRC) Checksum(data []byte) uint16 {
	return Checksum(crc.Init, data, crc.tbl)
}

// Digest checksums a bitstream packed most significant bit first. The bit
// count is folded in so streams differing only by trailing zeros differ.
func (crc CRC) Digest(bits parse.Bitstream) uint16 {
	n := len(bits)
	return Checksum(crc.Checksum(bits.Bytes()), []byte{byte(n >> 8), byte(n)}, crc.tbl)
}

type Table [256]uint16

func NewTable(poly uint16) (table Table) {
	for tIdx := range table {
		crc := uint16(tIdx) << 8
		for bIdx := 0; bIdx < 8; bIdx++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc = crc << 1
			}
		}
		table[tIdx] = crc
	}
	return table
}

func Checksum(init uint16, data []byte, table Table) (crc uint16) {
	crc = init
	for _, v := range data {
		crc = crc<<8 ^ table[crc>>8^uint16(v)]
	}
	return
}

// A Frame is a distinct bitstream and the number of times it was seen.
type Frame struct {
	Bits   parse.Bitstream
	Digest uint16
	Count  int
}

// Dedupe collapses identical frames, keeping first-seen order. Digests
// only bucket frames; equality is always checked bit for bit.
func (crc CRC) Dedupe(frames []parse.Bitstream) (unique []Frame) {
	buckets := map[uint16][]int{}

	for _, bits := range frames {
		digest := crc.Digest(bits)

		found := false
		for _, idx := range buckets[digest] {
			if unique[idx].Bits.Equal(bits) {
				unique[idx].Count++
				found = true
				break
			}
		}
		if found {
			continue
		}

		buckets[digest] = append(buckets[digest], len(unique))
		unique = append(unique, Frame{Bits: bits, Digest: digest, Count: 1})
	}

	return
}
