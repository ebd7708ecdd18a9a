package checksum

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"hash"
)

// digest truncates a cryptographic hash to its first 8 bytes.
type digest struct {
	name    string
	size    uint8
	newHash func() hash.Hash
}

func NewSHA1() *digest {
	return &digest{name: string(SHA1), size: sha1.Size, newHash: sha1.New}
}

func NewSHA256() *digest {
	return &digest{name: string(SHA256), size: sha256.Size, newHash: sha256.New}
}

func (d *digest) Calculate(data []byte) uint64 {
	h := d.newHash()
	h.Write(data)
	return binary.BigEndian.Uint64(h.Sum(nil)[:8])
}

func (d *digest) Verify(data []byte, expected uint64) bool {
	return d.Calculate(data) == expected
}

func (d *digest) Size() uint8 {
	return d.size
}

func (d *digest) Name() string {
	return d.name
}
