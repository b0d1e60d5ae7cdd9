// Package conv appends decimal numbers to byte slices without fmt or strconv,
// for console output on the MCU.
package conv

// AppendUint appends the base-10 form of n to dst.
func AppendUint(dst []byte, n uint64) []byte {
	var buf [20]byte
	i := len(buf)
	for {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return append(dst, buf[i:]...)
}

// AppendUint16s appends vs separated by sep.
func AppendUint16s(dst []byte, vs []uint16, sep byte) []byte {
	for i, v := range vs {
		if i > 0 {
			dst = append(dst, sep)
		}
		dst = AppendUint(dst, uint64(v))
	}
	return dst
}
