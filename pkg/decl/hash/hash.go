// Package hash contains the hash functions used for descriptor fingerprints.
package hash

const DJBInit uint64 = 5381

func DJBCombine(acc, h uint64) uint64 {
	return mul33(acc) + h
}

func DJB(hs ...uint64) uint64 {
	acc := DJBInit
	for _, h := range hs {
		acc = DJBCombine(acc, h)
	}
	return acc
}

func UInt64(u uint64) uint64 {
	return u
}

func String(s string) uint64 {
	h := DJBInit
	for i := 0; i < len(s); i++ {
		h = DJBCombine(h, uint64(s[i]))
	}
	return h
}

func Bool(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func mul33(u uint64) uint64 {
	return u<<5 + u
}
