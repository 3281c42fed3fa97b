package core

// HashFirstName computes the FNV1a-style 32-bit hash of a first name that
// the account store uses to derive a customer id. It folds the name in
// 4-byte, then 2-byte, then 1-byte blocks, each block XORed into the
// running hash and multiplied by 31 via shift-and-subtract, finishing with
// an avalanche fold of the upper and lower halves.
func HashFirstName(name string) uint32 {
	b := []byte(name)
	var h uint32 = 2166136261 // FNV-1a 32-bit offset basis

	for len(b) >= 4 {
		x := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
		h = ((h ^ x) << 5) - (h ^ x)
		b = b[4:]
	}
	if len(b) >= 2 {
		x := uint32(b[0]) | uint32(b[1])<<8
		h = ((h ^ x) << 5) - (h ^ x)
		b = b[2:]
	}
	if len(b) >= 1 {
		x := uint32(b[0])
		h = ((h ^ x) << 5) - (h ^ x)
	}

	return (h >> 16) ^ h
}

// CustomerID derives the account store's primary key from a name hash and
// a pin: the full 32-bit hash is shifted into bits 16-47 of the result and
// the pin is XORed into the low 16 bits, which the shift leaves zero.
func CustomerID(name string, pin uint16) uint64 {
	nh := HashFirstName(name)
	return uint64(nh)<<16 ^ uint64(pin)
}
