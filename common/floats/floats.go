// Copyright 2024 dimred Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package floats

import (
	"github.com/chewxy/math32"
)

// Zero fills zeros in a slice of 32-bit floats.
func Zero(a []float32) {
	for i := range a {
		a[i] = 0
	}
}

// MatZero fills zeros in a matrix of 32-bit floats.
func MatZero(x [][]float32) {
	for i := range x {
		for j := range x[i] {
			x[i][j] = 0
		}
	}
}

// SubTo subtracts one vector by another and saves the result in dst: dst = a - b
func SubTo(a, b, dst []float32) {
	if len(dst) != len(b) || len(a) != len(b) {
		panic("floats: slice lengths do not match")
	}
	for i := range a {
		dst[i] = a[i] - b[i]
	}
}

// Add two vectors: dst = dst + s
func Add(dst, s []float32) {
	if len(dst) != len(s) {
		panic("floats: slice lengths do not match")
	}
	for i := range dst {
		dst[i] += s[i]
	}
}

// AddTo adds two vectors and saves the result in dst: dst = a + b
func AddTo(a, b, dst []float32) {
	if len(a) != len(b) || len(a) != len(dst) {
		panic("floats: slice lengths do not match")
	}
	for i := range a {
		dst[i] = a[i] + b[i]
	}
}

// Sub one vector by another: dst = dst - s
func Sub(dst, s []float32) {
	if len(dst) != len(s) {
		panic("floats: slice lengths do not match")
	}
	for i := range dst {
		dst[i] -= s[i]
	}
}

// MulConst multiplies a vector with a const: dst = dst * c
func MulConst(dst []float32, c float32) {
	for i := range dst {
		dst[i] *= c
	}
}

// MulConstTo multiplies a vector and a const, then saves the result in dst: dst = a * c
func MulConstTo(a []float32, c float32, dst []float32) {
	if len(a) != len(dst) {
		panic("floats: slice lengths do not match")
	}
	for i := range a {
		dst[i] = a[i] * c
	}
}

// MulConstAdd multiplies a vector and a const, then adds to dst: dst = dst + a * c
func MulConstAdd(a []float32, c float32, dst []float32) {
	if len(a) != len(dst) {
		panic("floats: slice lengths do not match")
	}
	for i := range a {
		dst[i] += a[i] * c
	}
}

// MulTo multiplies two vectors elementwise and saves the result in c: c = a * b
func MulTo(a, b, c []float32) {
	if len(a) != len(b) || len(a) != len(c) {
		panic("floats: slice lengths do not match")
	}
	for i := range a {
		c[i] = a[i] * b[i]
	}
}

// AddConst adds a const to a vector: dst = dst + c
func AddConst(dst []float32, c float32) {
	for i := range dst {
		dst[i] += c
	}
}

// Dot two vectors.
func Dot(a, b []float32) (ret float32) {
	if len(a) != len(b) {
		panic("floats: slice lengths do not match")
	}
	for i := range a {
		ret += a[i] * b[i]
	}
	return
}

// Euclidean distance between two vectors.
func Euclidean(a, b []float32) (ret float32) {
	if len(a) != len(b) {
		panic("floats: slice lengths do not match")
	}
	for i := range a {
		ret += (a[i] - b[i]) * (a[i] - b[i])
	}
	return math32.Sqrt(ret)
}

// Mean of a vector.
func Mean(a []float32) (ret float32) {
	for i := range a {
		ret += a[i]
	}
	ret /= float32(len(a))
	return
}

// StdDev returns the sample standard deviation of a vector.
func StdDev(a []float32) float32 {
	mean := Mean(a)
	sum := float32(0)
	for i := range a {
		sum += (a[i] - mean) * (a[i] - mean)
	}
	return math32.Sqrt(sum / float32(len(a)-1))
}

// Min element of a vector.
func Min(a []float32) float32 {
	if len(a) == 0 {
		panic("floats: zero length slice")
	}
	ret := a[0]
	for _, v := range a[1:] {
		if v < ret {
			ret = v
		}
	}
	return ret
}

// Max element of a vector.
func Max(a []float32) float32 {
	if len(a) == 0 {
		panic("floats: zero length slice")
	}
	ret := a[0]
	for _, v := range a[1:] {
		if v > ret {
			ret = v
		}
	}
	return ret
}

// MM multiplies the m-by-k matrix A (or its transpose) by the k-by-n matrix B
// (or its transpose) and accumulates into the m-by-n matrix C.
func MM(transA, transB bool, m, n, k int, a []float32, lda int, b []float32, ldb int, c []float32, ldc int) {
	if !transA && !transB {
		for i := 0; i < m; i++ {
			for l := 0; l < k; l++ {
				// C_i += A_{il} * B_l
				MulConstAdd(b[l*ldb:l*ldb+n], a[i*lda+l], c[i*ldc:i*ldc+n])
			}
		}
	} else if !transA && transB {
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				c[i*ldc+j] += Dot(a[i*lda:i*lda+k], b[j*ldb:j*ldb+k])
			}
		}
	} else if transA && !transB {
		for l := 0; l < k; l++ {
			for i := 0; i < m; i++ {
				// C_i += A_{li} * B_l
				MulConstAdd(b[l*ldb:l*ldb+n], a[l*lda+i], c[i*ldc:i*ldc+n])
			}
		}
	} else {
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				for l := 0; l < k; l++ {
					c[i*ldc+j] += a[l*lda+i] * b[j*ldb+l]
				}
			}
		}
	}
}
