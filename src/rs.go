// SPDX-FileCopyrightText: 2002 Phil Karn, KA9Q
// SPDX-FileCopyrightText: 2026 The Skysonde Authors
// SPDX-License-Identifier: GPL-2.0-or-later

package skysonde

/*--------------------------------------------------------------------------------
 *
 * Purpose:	Reed-Solomon codec over GF(2^8).
 *
 *		The encoder and the Galois field table generation follow Phil
 *		Karn's well known general-purpose implementation.  The decoder
 *		is the usual Berlekamp-Massey / Chien / Forney combination.
 *
 *		The RS41 uses RS(255,231) with first root 0 and root spacing 1.
 *		Shortened codewords are handled by the caller zero padding the
 *		message region up to K symbols.
 *
 *--------------------------------------------------------------------------------*/

type rs_t struct {
	mm       uint   // Bits per symbol
	nn       int    // Symbols per block (= (1<<mm)-1)
	alpha_to []byte // log lookup table
	index_of []byte // antilog lookup table
	genpoly  []byte // Generator polynomial, index form
	nroots   int    // Number of generator roots = number of parity symbols
	fcr      int    // First consecutive root, index form
	prim     int    // Primitive element, index form
	iprim    int    // prim-th root of 1, index form
}

func modnn(rs *rs_t, x int) int {
	for x >= rs.nn {
		x -= rs.nn
		x = (x >> rs.mm) + (x & rs.nn)
	}
	return x
}

/*
 * Initialize a Reed-Solomon codec.
 *
 *   symsize = symbol size, bits (1-8)
 *   gfpoly = field generator polynomial coefficients
 *   fcr = first root of RS code generator polynomial, index form
 *   prim = primitive element to generate polynomial roots
 *   nroots = RS code generator polynomial degree (number of roots)
 */
func init_rs_char(symsize uint, gfpoly uint, fcr uint, prim uint, nroots uint) *rs_t {
	if symsize > 8 {
		return nil // Need version with ints rather than chars
	}
	if fcr >= (1 << symsize) {
		return nil
	}
	if prim == 0 || prim >= (1<<symsize) {
		return nil
	}
	if nroots >= (1 << symsize) {
		return nil // Can't have more roots than symbol values!
	}

	var rs = new(rs_t)

	rs.mm = symsize
	rs.nn = (1 << symsize) - 1

	rs.alpha_to = make([]byte, rs.nn+1)
	rs.index_of = make([]byte, rs.nn+1)

	// Generate Galois field lookup tables
	rs.index_of[0] = byte(rs.nn) // log(zero) = -inf (A0)
	rs.alpha_to[rs.nn] = 0       // alpha**-inf = 0
	var sr = 1
	for i := 0; i < rs.nn; i++ {
		rs.index_of[sr] = byte(i)
		rs.alpha_to[i] = byte(sr)
		sr <<= 1
		if sr&(1<<symsize) != 0 {
			sr ^= int(gfpoly)
		}
		sr &= rs.nn
	}
	if sr != 1 {
		// field generator polynomial is not primitive!
		return nil
	}

	// Form RS code generator polynomial from its roots
	rs.genpoly = make([]byte, nroots+1)
	rs.fcr = int(fcr)
	rs.prim = int(prim)
	rs.nroots = int(nroots)

	// Find prim-th root of 1, used in decoding
	var iprim = 1
	for (iprim % int(prim)) != 0 {
		iprim += rs.nn
	}
	rs.iprim = iprim / int(prim)

	rs.genpoly[0] = 1
	for i, root := 0, int(fcr)*int(prim); i < int(nroots); i, root = i+1, root+int(prim) {
		rs.genpoly[i+1] = 1

		// Multiply rs->genpoly[] by  @**(root + x)
		for j := i; j > 0; j-- {
			if rs.genpoly[j] != 0 {
				rs.genpoly[j] = rs.genpoly[j-1] ^ rs.alpha_to[modnn(rs, int(rs.index_of[rs.genpoly[j]])+root)]
			} else {
				rs.genpoly[j] = rs.genpoly[j-1]
			}
		}
		// rs->genpoly[0] can never be zero
		rs.genpoly[0] = rs.alpha_to[modnn(rs, int(rs.index_of[rs.genpoly[0]])+root)]
	}
	// convert rs->genpoly[] to index form for quicker encoding
	for i := 0; i <= int(nroots); i++ {
		rs.genpoly[i] = rs.index_of[rs.genpoly[i]]
	}

	return rs
}

// Systematic encode: compute rs.nroots parity symbols for the nn-nroots
// message symbols in data; parity is written to bb.
func encode_rs_char(rs *rs_t, data []byte, bb []byte) {
	var nroots = rs.nroots
	var dataLen = rs.nn - nroots

	for k := range bb {
		bb[k] = 0
	}

	for i := 0; i < dataLen; i++ {
		var feedback = rs.index_of[data[i]^bb[0]]

		if int(feedback) != rs.nn { // feedback term is non-zero
			for j := 1; j < nroots; j++ {
				bb[j] ^= rs.alpha_to[modnn(rs, int(feedback)+int(rs.genpoly[nroots-j]))]
			}
		}

		// Shift
		copy(bb, bb[1:nroots])

		if int(feedback) != rs.nn {
			bb[nroots-1] = rs.alpha_to[modnn(rs, int(feedback)+int(rs.genpoly[0]))]
		} else {
			bb[nroots-1] = 0
		}
	}
}

// Correct errors in a full nn-symbol block (message followed by parity),
// in place.  Returns the number of symbols corrected, or -1 if the
// codeword is uncorrectable.
func decode_rs_char(rs *rs_t, data []byte) int {
	var nn = rs.nn
	var nroots = rs.nroots
	var a0 = nn // index form of zero

	var lambda = make([]int, nroots+1) // Err locator poly, poly form
	var s = make([]int, nroots)        // syndrome poly
	var b = make([]int, nroots+1)      // index form
	var t = make([]int, nroots+1)
	var omega = make([]int, nroots+1) // index form
	var root = make([]int, nroots)
	var reg = make([]int, nroots+1) // index form
	var loc = make([]int, nroots)

	// form the syndromes; i.e., evaluate data(x) at roots of g(x)
	for i := 0; i < nroots; i++ {
		s[i] = int(data[0])
	}
	for j := 1; j < nn; j++ {
		for i := 0; i < nroots; i++ {
			if s[i] == 0 {
				s[i] = int(data[j])
			} else {
				s[i] = int(data[j]) ^ int(rs.alpha_to[modnn(rs, int(rs.index_of[s[i]])+(rs.fcr+i)*rs.prim)])
			}
		}
	}

	// Convert syndromes to index form, checking for nonzero condition
	var synError = 0
	for i := 0; i < nroots; i++ {
		synError |= s[i]
		s[i] = int(rs.index_of[s[i]])
	}

	if synError == 0 {
		// data[] is already a codeword
		return 0
	}

	for i := 1; i <= nroots; i++ {
		lambda[i] = 0
	}
	lambda[0] = 1

	for i := 0; i < nroots+1; i++ {
		b[i] = int(rs.index_of[lambda[i]])
	}

	// Berlekamp-Massey algorithm to determine the error locator polynomial
	var r = 0  // step number
	var el = 0 // current length of the LFSR
	for r < nroots {
		r++
		// Compute discrepancy at the r-th step in poly form
		var discr = 0
		for i := 0; i < r; i++ {
			if lambda[i] != 0 && s[r-i-1] != a0 {
				discr ^= int(rs.alpha_to[modnn(rs, int(rs.index_of[lambda[i]])+s[r-i-1])])
			}
		}
		var discrIdx = int(rs.index_of[discr])
		if discrIdx == a0 {
			// B(x) <-- x*B(x)
			copy(b[1:], b[:nroots])
			b[0] = a0
		} else {
			// T(x) <-- lambda(x) - discr*x*B(x)
			t[0] = lambda[0]
			for i := 0; i < nroots; i++ {
				if b[i] != a0 {
					t[i+1] = lambda[i+1] ^ int(rs.alpha_to[modnn(rs, discrIdx+b[i])])
				} else {
					t[i+1] = lambda[i+1]
				}
			}
			if 2*el <= r-1 {
				el = r - el
				// B(x) <-- inv(discr) * lambda(x)
				for i := 0; i <= nroots; i++ {
					if lambda[i] == 0 {
						b[i] = a0
					} else {
						b[i] = modnn(rs, int(rs.index_of[lambda[i]])-discrIdx+nn)
					}
				}
			} else {
				copy(b[1:], b[:nroots])
				b[0] = a0
			}
			copy(lambda, t)
		}
	}

	// Convert lambda to index form and compute deg(lambda)
	var degLambda = 0
	for i := 0; i < nroots+1; i++ {
		lambda[i] = int(rs.index_of[lambda[i]])
		if lambda[i] != a0 {
			degLambda = i
		}
	}

	// Find roots of the error locator polynomial by Chien search
	copy(reg[1:], lambda[1:nroots+1])
	var count = 0
	for i, k := 1, rs.iprim-1; i <= nn; i, k = i+1, modnn(rs, k+rs.iprim) {
		var q = 1 // lambda[0] is always 0
		for j := degLambda; j > 0; j-- {
			if reg[j] != a0 {
				reg[j] = modnn(rs, reg[j]+j)
				q ^= int(rs.alpha_to[reg[j]])
			}
		}
		if q != 0 {
			continue // Not a root
		}
		// store root (index-form) and error location number
		root[count] = i
		loc[count] = k
		count++
		if count == degLambda {
			break
		}
	}

	if degLambda != count {
		// deg(lambda) unequal to number of roots => uncorrectable
		return -1
	}

	// Compute err evaluator poly omega(x) = s(x)*lambda(x) (modulo x**nroots),
	// in index form.  Also find deg(omega).
	var degOmega = 0
	for i := 0; i < nroots; i++ {
		var tmp = 0
		var j = degLambda
		if i < degLambda {
			j = i
		}
		for ; j >= 0; j-- {
			if s[i-j] != a0 && lambda[j] != a0 {
				tmp ^= int(rs.alpha_to[modnn(rs, s[i-j]+lambda[j])])
			}
		}
		if tmp != 0 {
			degOmega = i
		}
		omega[i] = int(rs.index_of[tmp])
	}
	omega[nroots] = a0

	// Compute error values in poly-form by Forney's algorithm
	for j := count - 1; j >= 0; j-- {
		var num1 = 0
		for i := degOmega; i >= 0; i-- {
			if omega[i] != a0 {
				num1 ^= int(rs.alpha_to[modnn(rs, omega[i]+i*root[j])])
			}
		}
		var num2 = int(rs.alpha_to[modnn(rs, root[j]*(rs.fcr-1)+nn)])
		var den = 0

		// lambda[i+1] for i even is the formal derivative lambda' of lambda[i]
		var i = degLambda
		if nroots-1 < i {
			i = nroots - 1
		}
		i &= ^1
		for ; i >= 0; i -= 2 {
			if lambda[i+1] != a0 {
				den ^= int(rs.alpha_to[modnn(rs, lambda[i+1]+i*root[j])])
			}
		}
		if den == 0 {
			return -1
		}
		// Apply error to data
		if num1 != 0 {
			data[loc[j]] ^= rs.alpha_to[modnn(rs, int(rs.index_of[num1])+int(rs.index_of[num2])+nn-int(rs.index_of[den]))]
		}
	}

	return count
}
