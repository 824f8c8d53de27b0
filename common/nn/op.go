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

import "github.com/chewxy/math32"

type op interface {
	String() string
	forward(inputs ...*Tensor) *Tensor
	backward(dy *Tensor) []*Tensor
	inputsAndOutput() ([]*Tensor, *Tensor)
	setInputs(inputs ...*Tensor)
	setOutput(y *Tensor)
}

type base struct {
	inputs []*Tensor
	output *Tensor
}

func (b *base) inputsAndOutput() ([]*Tensor, *Tensor) {
	return b.inputs, b.output
}

func (b *base) setInputs(inputs ...*Tensor) {
	b.inputs = inputs
}

func (b *base) setOutput(y *Tensor) {
	b.output = y
}

func apply(f op, inputs ...*Tensor) *Tensor {
	y := f.forward(inputs...)
	f.setInputs(inputs...)
	f.setOutput(y)
	y.op = f
	return y
}

// reduceTo sums a gradient down to the shape of a broadcast input.
func reduceTo(dy *Tensor, shape []int) *Tensor {
	wSize := 1
	for _, s := range shape {
		wSize *= s
	}
	g := Zeros(shape...)
	for i := range dy.data {
		g.data[i%wSize] += dy.data[i]
	}
	return g
}

type add struct {
	base
}

func (a *add) String() string {
	return "Add"
}

func (a *add) forward(inputs ...*Tensor) *Tensor {
	return inputs[0].clone().add(inputs[1])
}

func (a *add) backward(dy *Tensor) []*Tensor {
	gx0 := dy.clone()
	gx1 := reduceTo(dy, a.inputs[1].shape)
	return []*Tensor{gx0, gx1}
}

// Add returns the element-wise sum of two tensors. The shape of the second
// tensor may be a suffix of the shape of the first tensor.
func Add(x0, x1 *Tensor) *Tensor {
	return apply(&add{}, x0, x1)
}

type sub struct {
	base
}

func (s *sub) String() string {
	return "Sub"
}

func (s *sub) forward(inputs ...*Tensor) *Tensor {
	return inputs[0].clone().sub(inputs[1])
}

func (s *sub) backward(dy *Tensor) []*Tensor {
	gx0 := dy.clone()
	gx1 := reduceTo(dy, s.inputs[1].shape).neg()
	return []*Tensor{gx0, gx1}
}

// Sub returns the element-wise difference of two tensors. The shape of the
// second tensor may be a suffix of the shape of the first tensor.
func Sub(x0, x1 *Tensor) *Tensor {
	return apply(&sub{}, x0, x1)
}

type mul struct {
	base
}

func (m *mul) String() string {
	return "Mul"
}

func (m *mul) forward(inputs ...*Tensor) *Tensor {
	return inputs[0].clone().mul(inputs[1])
}

func (m *mul) backward(dy *Tensor) []*Tensor {
	gx0 := dy.clone().mul(m.inputs[1])
	gx1 := reduceTo(dy.clone().mul(m.inputs[0]), m.inputs[1].shape)
	return []*Tensor{gx0, gx1}
}

// Mul returns the element-wise product of two tensors. The shape of the
// second tensor may be a suffix of the shape of the first tensor.
func Mul(x0, x1 *Tensor) *Tensor {
	return apply(&mul{}, x0, x1)
}

type div struct {
	base
}

func (d *div) String() string {
	return "Div"
}

func (d *div) forward(inputs ...*Tensor) *Tensor {
	return inputs[0].clone().div(inputs[1])
}

func (d *div) backward(dy *Tensor) []*Tensor {
	gx0 := dy.clone().div(d.inputs[1])
	gx1 := reduceTo(dy.clone().mul(d.inputs[0]).div(d.inputs[1]).div(d.inputs[1]), d.inputs[1].shape).neg()
	return []*Tensor{gx0, gx1}
}

// Div returns the element-wise quotient of two tensors. The shape of the
// second tensor may be a suffix of the shape of the first tensor.
func Div(x0, x1 *Tensor) *Tensor {
	return apply(&div{}, x0, x1)
}

type square struct {
	base
}

func (s *square) String() string {
	return "Square"
}

func (s *square) forward(inputs ...*Tensor) *Tensor {
	return inputs[0].clone().square()
}

func (s *square) backward(dy *Tensor) []*Tensor {
	two := NewScalar(2)
	gx := dy.clone().mul(s.inputs[0]).mul(two)
	return []*Tensor{gx}
}

// Square returns the element-wise square of a tensor.
func Square(x *Tensor) *Tensor {
	return apply(&square{}, x)
}

type exp struct {
	base
}

func (e *exp) String() string {
	return "Exp"
}

func (e *exp) forward(inputs ...*Tensor) *Tensor {
	return inputs[0].clone().exp()
}

func (e *exp) backward(dy *Tensor) []*Tensor {
	gx := dy.clone().mul(e.output)
	return []*Tensor{gx}
}

// Exp returns the element-wise exponential of a tensor.
func Exp(x *Tensor) *Tensor {
	return apply(&exp{}, x)
}

type log struct {
	base
}

func (l *log) String() string {
	return "Log"
}

func (l *log) forward(inputs ...*Tensor) *Tensor {
	return inputs[0].clone().log()
}

func (l *log) backward(dy *Tensor) []*Tensor {
	gx := dy.clone().div(l.inputs[0])
	return []*Tensor{gx}
}

// Log returns the element-wise natural logarithm of a tensor.
func Log(x *Tensor) *Tensor {
	return apply(&log{}, x)
}

type sum struct {
	base
}

func (s *sum) String() string {
	return "Sum"
}

func (s *sum) forward(inputs ...*Tensor) *Tensor {
	return NewScalar(inputs[0].sum())
}

func (s *sum) backward(dy *Tensor) []*Tensor {
	gx := Ones(s.inputs[0].shape...).mul(dy)
	return []*Tensor{gx}
}

// Sum returns the sum of all elements of a tensor.
func Sum(x *Tensor) *Tensor {
	return apply(&sum{}, x)
}

type mean struct {
	base
}

func (m *mean) String() string {
	return "Mean"
}

func (m *mean) forward(inputs ...*Tensor) *Tensor {
	return NewScalar(inputs[0].sum() / float32(len(inputs[0].data)))
}

func (m *mean) backward(dy *Tensor) []*Tensor {
	n := NewScalar(float32(len(m.inputs[0].data)))
	gx := Ones(m.inputs[0].shape...).mul(dy).div(n)
	return []*Tensor{gx}
}

// Mean returns the mean of all elements of a tensor.
func Mean(x *Tensor) *Tensor {
	return apply(&mean{}, x)
}

type matMul struct {
	base
	transpose1 bool
	transpose2 bool
}

func (m *matMul) String() string {
	return "MatMul"
}

func (m *matMul) forward(inputs ...*Tensor) *Tensor {
	return inputs[0].matMul(inputs[1], m.transpose1, m.transpose2)
}

func (m *matMul) backward(dy *Tensor) []*Tensor {
	var gx0, gx1 *Tensor
	if !m.transpose1 && !m.transpose2 {
		gx0 = dy.matMul(m.inputs[1], false, true)
		gx1 = m.inputs[0].matMul(dy, true, false)
	} else if !m.transpose1 && m.transpose2 {
		gx0 = dy.matMul(m.inputs[1], false, false)
		gx1 = dy.matMul(m.inputs[0], true, false)
	} else if m.transpose1 && !m.transpose2 {
		gx0 = m.inputs[1].matMul(dy, false, true)
		gx1 = m.inputs[0].matMul(dy, false, false)
	} else {
		gx0 = m.inputs[1].matMul(dy, true, true)
		gx1 = dy.matMul(m.inputs[0], true, true)
	}
	return []*Tensor{gx0, gx1}
}

// MatMul returns the matrix product of two 2-D tensors. The optional flags
// transpose the first and second operand before multiplication.
func MatMul(x0, x1 *Tensor, trans ...bool) *Tensor {
	op := &matMul{}
	if len(trans) > 0 {
		op.transpose1 = trans[0]
	}
	if len(trans) > 1 {
		op.transpose2 = trans[1]
	}
	return apply(op, x0, x1)
}

type transpose struct {
	base
}

func (t *transpose) String() string {
	return "Transpose"
}

func (t *transpose) forward(inputs ...*Tensor) *Tensor {
	return inputs[0].transpose()
}

func (t *transpose) backward(dy *Tensor) []*Tensor {
	gx := dy.transpose()
	return []*Tensor{gx}
}

// Transpose returns the transpose of a 2-D tensor.
func Transpose(x *Tensor) *Tensor {
	return apply(&transpose{}, x)
}

type sigmoid struct {
	base
}

func (s *sigmoid) String() string {
	return "Sigmoid"
}

func (s *sigmoid) forward(inputs ...*Tensor) *Tensor {
	y := inputs[0].clone()
	for i := range y.data {
		y.data[i] = 1 / (1 + math32.Exp(-y.data[i]))
	}
	return y
}

func (s *sigmoid) backward(dy *Tensor) []*Tensor {
	// dx = dy * y * (1 - y)
	gx := dy.clone().mul(s.output).mul(Ones(s.output.shape...).sub(s.output))
	return []*Tensor{gx}
}

// Sigmoid returns the element-wise sigmoid of a tensor.
func Sigmoid(x *Tensor) *Tensor {
	return apply(&sigmoid{}, x)
}

type tanh struct {
	base
}

func (t *tanh) String() string {
	return "Tanh"
}

func (t *tanh) forward(inputs ...*Tensor) *Tensor {
	return inputs[0].clone().tanh()
}

func (t *tanh) backward(dy *Tensor) []*Tensor {
	// dx = dy * (1 - y^2)
	gx := dy.clone().mul(Ones(t.output.shape...).sub(t.output.clone().square()))
	return []*Tensor{gx}
}

// Tanh returns the element-wise hyperbolic tangent of a tensor.
func Tanh(x *Tensor) *Tensor {
	return apply(&tanh{}, x)
}

type relu struct {
	base
}

func (r *relu) String() string {
	return "ReLU"
}

func (r *relu) forward(inputs ...*Tensor) *Tensor {
	return inputs[0].clone().maximum(NewScalar(0))
}

func (r *relu) backward(dy *Tensor) []*Tensor {
	gx := dy.clone()
	for i := range gx.data {
		if r.inputs[0].data[i] <= 0 {
			gx.data[i] = 0
		}
	}
	return []*Tensor{gx}
}

// ReLU returns the element-wise rectified linear unit of a tensor.
func ReLU(x *Tensor) *Tensor {
	return apply(&relu{}, x)
}

type flatten struct {
	base
}

func (f *flatten) String() string {
	return "Flatten"
}

func (f *flatten) forward(inputs ...*Tensor) *Tensor {
	return NewTensor(inputs[0].clone().data, len(inputs[0].data))
}

func (f *flatten) backward(dy *Tensor) []*Tensor {
	gx := NewTensor(dy.clone().data, f.inputs[0].shape...)
	return []*Tensor{gx}
}

// Flatten returns a 1-D view of a tensor.
func Flatten(x *Tensor) *Tensor {
	return apply(&flatten{}, x)
}

type broadcast struct {
	base
	n int
}

func (b *broadcast) String() string {
	return "Broadcast"
}

func (b *broadcast) forward(inputs ...*Tensor) *Tensor {
	shape := append([]int{b.n}, inputs[0].shape...)
	data := make([]float32, b.n*len(inputs[0].data))
	for i := 0; i < b.n; i++ {
		copy(data[i*len(inputs[0].data):], inputs[0].data)
	}
	return NewTensor(data, shape...)
}

func (b *broadcast) backward(dy *Tensor) []*Tensor {
	gx := reduceTo(dy, b.inputs[0].shape)
	return []*Tensor{gx}
}

// Broadcast repeats a tensor n times along a new leading axis.
func Broadcast(x *Tensor, n int) *Tensor {
	return apply(&broadcast{n: n}, x)
}
