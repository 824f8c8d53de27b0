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

package nn

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/chewxy/math32"
	"github.com/dimred-io/dimred/common/floats"
)

type Tensor struct {
	data  []float32
	shape []int
	grad  *Tensor
	op    op
}

func NewTensor(data []float32, shape ...int) *Tensor {
	n := 1
	for _, s := range shape {
		n *= s
	}
	if n != len(data) {
		panic("nn: data size mismatches with shape")
	}
	return &Tensor{
		data:  data,
		shape: shape,
	}
}

func NewScalar(data float32) *Tensor {
	return &Tensor{
		data:  []float32{data},
		shape: []int{},
	}
}

// LinSpace creates a tensor filled with evenly spaced values.
func LinSpace(start, end float32, shape ...int) *Tensor {
	n := 1
	for _, s := range shape {
		n *= s
	}
	data := make([]float32, n)
	if n == 1 {
		data[0] = start
	} else {
		delta := (end - start) / float32(n-1)
		for i := range data {
			data[i] = start + delta*float32(i)
		}
	}
	return &Tensor{
		data:  data,
		shape: shape,
	}
}

// Rand creates a tensor filled with uniform random values in [0,1).
func Rand(shape ...int) *Tensor {
	n := 1
	for _, s := range shape {
		n *= s
	}
	data := make([]float32, n)
	for i := range data {
		data[i] = rand.Float32()
	}
	return &Tensor{
		data:  data,
		shape: shape,
	}
}

// Normal creates a tensor filled with normal random values.
func Normal(mean, std float32, shape ...int) *Tensor {
	n := 1
	for _, s := range shape {
		n *= s
	}
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(rand.NormFloat64())*std + mean
	}
	return &Tensor{
		data:  data,
		shape: shape,
	}
}

// Ones creates a tensor filled with ones.
func Ones(shape ...int) *Tensor {
	n := 1
	for _, s := range shape {
		n *= s
	}
	data := make([]float32, n)
	for i := range data {
		data[i] = 1
	}
	return &Tensor{
		data:  data,
		shape: shape,
	}
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape ...int) *Tensor {
	n := 1
	for _, s := range shape {
		n *= s
	}
	data := make([]float32, n)
	return &Tensor{
		data:  data,
		shape: shape,
	}
}

// NormalInit fills a tensor with normal random values in place.
func NormalInit(t *Tensor, mean, std float32) {
	for i := range t.data {
		t.data[i] = float32(rand.NormFloat64())*std + mean
	}
}

// RequireGrad marks a tensor as a trainable parameter.
func (t *Tensor) RequireGrad() *Tensor {
	return t
}

// NoGrad detaches a tensor from the computation graph.
func (t *Tensor) NoGrad() *Tensor {
	if t.op != nil {
		t.op = nil
	}
	return t
}

// Shape returns the shape of a tensor.
func (t *Tensor) Shape() []int {
	return t.shape
}

// Data returns the backing slice of a tensor.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Slice returns rows [begin, end) over the leading axis. The returned tensor
// shares the backing array.
func (t *Tensor) Slice(begin, end int) *Tensor {
	if len(t.shape) < 1 {
		panic("nn: slice expects a tensor")
	}
	rowSize := 1
	for _, s := range t.shape[1:] {
		rowSize *= s
	}
	shape := make([]int, len(t.shape))
	copy(shape, t.shape)
	shape[0] = end - begin
	return &Tensor{
		data:  t.data[begin*rowSize : end*rowSize],
		shape: shape,
	}
}

func (t *Tensor) String() string {
	// Print scalar value
	if len(t.shape) == 0 {
		return fmt.Sprint(t.data[0])
	}

	builder := strings.Builder{}
	builder.WriteString("[")
	if len(t.data) <= 10 {
		for i := 0; i < len(t.data); i++ {
			builder.WriteString(fmt.Sprint(t.data[i]))
			if i != len(t.data)-1 {
				builder.WriteString(", ")
			}
		}
	} else {
		for i := 0; i < 5; i++ {
			builder.WriteString(fmt.Sprint(t.data[i]))
			builder.WriteString(", ")
		}
		builder.WriteString("..., ")
		for i := len(t.data) - 5; i < len(t.data); i++ {
			builder.WriteString(fmt.Sprint(t.data[i]))
			if i != len(t.data)-1 {
				builder.WriteString(", ")
			}
		}
	}
	builder.WriteString("]")
	return builder.String()
}

// Backward propagates gradients through the computation graph. Gradients
// accumulate, so a tensor feeding several graph nodes (a tied weight matrix)
// receives the sum of all contributions.
func (t *Tensor) Backward() {
	t.grad = Ones(t.shape...)
	// Collect ops so that every producer precedes its consumers.
	var ops []op
	visited := make(map[op]bool)
	var collect func(o op)
	collect = func(o op) {
		if o == nil || visited[o] {
			return
		}
		visited[o] = true
		inputs, _ := o.inputsAndOutput()
		for _, input := range inputs {
			collect(input.op)
		}
		ops = append(ops, o)
	}
	collect(t.op)
	// Reset downstream gradients.
	for _, o := range ops {
		inputs, _ := o.inputsAndOutput()
		for _, input := range inputs {
			input.grad = nil
		}
	}
	// Propagate consumers before producers.
	for i := len(ops) - 1; i >= 0; i-- {
		o := ops[i]
		inputs, output := o.inputsAndOutput()
		grads := o.backward(output.grad)
		for j := range grads {
			if inputs[j].grad == nil {
				inputs[j].grad = grads[j]
			} else {
				inputs[j].grad.add(grads[j])
			}
		}
	}
}

func (t *Tensor) Grad() *Tensor {
	return t.grad
}

func (t *Tensor) clone() *Tensor {
	newData := make([]float32, len(t.data))
	copy(newData, t.data)
	return &Tensor{
		data:  newData,
		shape: t.shape,
	}
}

func (t *Tensor) add(other *Tensor) *Tensor {
	wSize := 1
	for i := range other.shape {
		wSize *= other.shape[i]
	}
	for i := range t.data {
		t.data[i] += other.data[i%wSize]
	}
	return t
}

func (t *Tensor) sub(other *Tensor) *Tensor {
	wSize := 1
	for i := range other.shape {
		wSize *= other.shape[i]
	}
	for i := range t.data {
		t.data[i] -= other.data[i%wSize]
	}
	return t
}

func (t *Tensor) mul(other *Tensor) *Tensor {
	wSize := 1
	for i := range other.shape {
		wSize *= other.shape[i]
	}
	for i := range t.data {
		t.data[i] *= other.data[i%wSize]
	}
	return t
}

func (t *Tensor) div(other *Tensor) *Tensor {
	wSize := 1
	for i := range other.shape {
		wSize *= other.shape[i]
	}
	for i := range t.data {
		t.data[i] /= other.data[i%wSize]
	}
	return t
}

func (t *Tensor) square() *Tensor {
	for i := range t.data {
		t.data[i] = t.data[i] * t.data[i]
	}
	return t
}

func (t *Tensor) exp() *Tensor {
	for i := range t.data {
		t.data[i] = math32.Exp(t.data[i])
	}
	return t
}

func (t *Tensor) log() *Tensor {
	for i := range t.data {
		t.data[i] = math32.Log(t.data[i])
	}
	return t
}

func (t *Tensor) tanh() *Tensor {
	for i := range t.data {
		t.data[i] = math32.Tanh(t.data[i])
	}
	return t
}

func (t *Tensor) neg() *Tensor {
	for i := range t.data {
		t.data[i] = -t.data[i]
	}
	return t
}

func (t *Tensor) maximum(other *Tensor) *Tensor {
	wSize := 1
	for i := range other.shape {
		wSize *= other.shape[i]
	}
	for i := range t.data {
		if other.data[i%wSize] > t.data[i] {
			t.data[i] = other.data[i%wSize]
		}
	}
	return t
}

func (t *Tensor) matMul(other *Tensor, transT, transOther bool) *Tensor {
	if len(t.shape) != 2 || len(other.shape) != 2 {
		panic("nn: matMul expects 2-D tensors")
	}
	var m, n, k int
	if !transT {
		m, k = t.shape[0], t.shape[1]
	} else {
		m, k = t.shape[1], t.shape[0]
	}
	if !transOther {
		if other.shape[0] != k {
			panic("nn: matMul shapes do not match")
		}
		n = other.shape[1]
	} else {
		if other.shape[1] != k {
			panic("nn: matMul shapes do not match")
		}
		n = other.shape[0]
	}
	result := Zeros(m, n)
	lda := t.shape[1]
	ldb := other.shape[1]
	floats.MM(transT, transOther, m, n, k, t.data, lda, other.data, ldb, result.data, n)
	return result
}

func (t *Tensor) transpose() *Tensor {
	if len(t.shape) != 2 {
		panic("nn: transpose expects a 2-D tensor")
	}
	rows, cols := t.shape[0], t.shape[1]
	data := make([]float32, len(t.data))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data[j*rows+i] = t.data[i*cols+j]
		}
	}
	return &Tensor{
		data:  data,
		shape: []int{cols, rows},
	}
}

func (t *Tensor) sum() float32 {
	sum := float32(0)
	for i := range t.data {
		sum += t.data[i]
	}
	return sum
}
