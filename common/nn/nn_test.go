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
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestAdd(t *testing.T) {
	x := NewTensor([]float32{1, 2, 3, 4}, 2, 2)
	b := NewTensor([]float32{10, 20}, 2)
	y := Add(x, b)
	assert.Equal(t, []float32{11, 22, 13, 24}, y.Data())

	y.Backward()
	assert.Equal(t, []float32{1, 1, 1, 1}, x.Grad().Data())
	assert.Equal(t, []float32{2, 2}, b.Grad().Data())
}

func TestSub(t *testing.T) {
	x := NewTensor([]float32{1, 2, 3, 4}, 2, 2)
	b := NewTensor([]float32{10, 20}, 2)
	y := Sub(x, b)
	assert.Equal(t, []float32{-9, -18, -7, -16}, y.Data())

	y.Backward()
	assert.Equal(t, []float32{1, 1, 1, 1}, x.Grad().Data())
	assert.Equal(t, []float32{-2, -2}, b.Grad().Data())
}

func TestMul(t *testing.T) {
	x := NewTensor([]float32{1, 2, 3, 4}, 2, 2)
	b := NewTensor([]float32{5, 6}, 2)
	y := Mul(x, b)
	assert.Equal(t, []float32{5, 12, 15, 24}, y.Data())

	y.Backward()
	assert.Equal(t, []float32{5, 6, 5, 6}, x.Grad().Data())
	assert.Equal(t, []float32{4, 6}, b.Grad().Data())
}

func TestDiv(t *testing.T) {
	x := NewTensor([]float32{4, 9}, 2)
	b := NewTensor([]float32{2, 3}, 2)
	y := Div(x, b)
	assert.Equal(t, []float32{2, 3}, y.Data())

	y.Backward()
	assert.InDeltaSlice(t, []float32{0.5, 1.0 / 3}, x.Grad().Data(), 1e-6)
	assert.InDeltaSlice(t, []float32{-1, -1}, b.Grad().Data(), 1e-6)
}

func TestSquare(t *testing.T) {
	x := NewTensor([]float32{1, -2, 3}, 3)
	y := Square(x)
	assert.Equal(t, []float32{1, 4, 9}, y.Data())

	y.Backward()
	assert.Equal(t, []float32{2, -4, 6}, x.Grad().Data())
}

func TestExp(t *testing.T) {
	x := NewTensor([]float32{0, 1}, 2)
	y := Exp(x)
	assert.InDeltaSlice(t, []float32{1, math32.Exp(1)}, y.Data(), 1e-5)

	y.Backward()
	assert.InDeltaSlice(t, []float32{1, math32.Exp(1)}, x.Grad().Data(), 1e-5)
}

func TestLog(t *testing.T) {
	x := NewTensor([]float32{1, 2, 4}, 3)
	y := Log(x)
	assert.InDeltaSlice(t, []float32{0, math32.Log(2), math32.Log(4)}, y.Data(), 1e-6)

	y.Backward()
	assert.InDeltaSlice(t, []float32{1, 0.5, 0.25}, x.Grad().Data(), 1e-6)
}

func TestSum(t *testing.T) {
	x := NewTensor([]float32{1, 2, 3, 4}, 2, 2)
	y := Sum(x)
	assert.Equal(t, float32(10), y.Data()[0])

	y.Backward()
	assert.Equal(t, []float32{1, 1, 1, 1}, x.Grad().Data())
}

func TestMean(t *testing.T) {
	x := NewTensor([]float32{1, 2, 3, 4}, 2, 2)
	y := Mean(x)
	assert.Equal(t, float32(2.5), y.Data()[0])

	y.Backward()
	assert.Equal(t, []float32{0.25, 0.25, 0.25, 0.25}, x.Grad().Data())
}

func TestMatMul(t *testing.T) {
	a := NewTensor([]float32{1, 2, 3, 4}, 2, 2)
	b := NewTensor([]float32{5, 6, 7, 8}, 2, 2)
	y := MatMul(a, b)
	assert.Equal(t, []float32{19, 22, 43, 50}, y.Data())

	y.Backward()
	assert.Equal(t, []float32{11, 15, 11, 15}, a.Grad().Data())
	assert.Equal(t, []float32{4, 4, 6, 6}, b.Grad().Data())
}

func TestMatMulTranspose(t *testing.T) {
	a := NewTensor([]float32{1, 2, 3, 4}, 2, 2)
	b := NewTensor([]float32{5, 6, 7, 8}, 2, 2)
	assert.Equal(t, []float32{17, 23, 39, 53}, MatMul(a, b, false, true).Data())
	assert.Equal(t, []float32{26, 30, 38, 44}, MatMul(a, b, true, false).Data())
	assert.Equal(t, []float32{23, 31, 34, 46}, MatMul(a, b, true, true).Data())
}

func TestTranspose(t *testing.T) {
	x := NewTensor([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	y := Transpose(x)
	assert.Equal(t, []int{3, 2}, y.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, y.Data())

	y.Backward()
	assert.Equal(t, []float32{1, 1, 1, 1, 1, 1}, x.Grad().Data())
}

func TestSigmoid(t *testing.T) {
	x := NewTensor([]float32{0}, 1)
	y := Sigmoid(x)
	assert.InDelta(t, 0.5, y.Data()[0], 1e-6)

	y.Backward()
	assert.InDelta(t, 0.25, x.Grad().Data()[0], 1e-6)
}

func TestTanh(t *testing.T) {
	x := NewTensor([]float32{0, 1}, 2)
	y := Tanh(x)
	assert.InDeltaSlice(t, []float32{0, math32.Tanh(1)}, y.Data(), 1e-6)

	y.Backward()
	th := math32.Tanh(1)
	assert.InDeltaSlice(t, []float32{1, 1 - th*th}, x.Grad().Data(), 1e-6)
}

func TestReLU(t *testing.T) {
	x := NewTensor([]float32{-1, 0, 2}, 3)
	y := ReLU(x)
	assert.Equal(t, []float32{0, 0, 2}, y.Data())

	y.Backward()
	assert.Equal(t, []float32{0, 0, 1}, x.Grad().Data())
}

func TestFlatten(t *testing.T) {
	x := NewTensor([]float32{1, 2, 3, 4}, 2, 2)
	y := Flatten(x)
	assert.Equal(t, []int{4}, y.Shape())

	y.Backward()
	assert.Equal(t, []int{2, 2}, x.Grad().Shape())
	assert.Equal(t, []float32{1, 1, 1, 1}, x.Grad().Data())
}

func TestBroadcast(t *testing.T) {
	x := NewTensor([]float32{1, 2}, 2)
	y := Broadcast(x, 3)
	assert.Equal(t, []int{3, 2}, y.Shape())
	assert.Equal(t, []float32{1, 2, 1, 2, 1, 2}, y.Data())

	y.Backward()
	assert.Equal(t, []float32{3, 3}, x.Grad().Data())
}

func TestSlice(t *testing.T) {
	x := NewTensor([]float32{1, 2, 3, 4, 5, 6}, 3, 2)
	y := x.Slice(1, 3)
	assert.Equal(t, []int{2, 2}, y.Shape())
	assert.Equal(t, []float32{3, 4, 5, 6}, y.Data())
}

func TestMeanSquareError(t *testing.T) {
	x := NewTensor([]float32{1, 2, 3}, 3)
	y := NewTensor([]float32{2, 2, 5}, 3)
	loss := MeanSquareError(x, y)
	assert.InDelta(t, 5.0/3, loss.Data()[0], 1e-6)
}

// A tensor feeding several nodes must receive the sum of all gradient
// contributions, not only the last one.
func TestGradientAccumulation(t *testing.T) {
	x := NewTensor([]float32{2}, 1)
	y := Add(Mul(x, NewTensor([]float32{3}, 1)), Mul(x, NewTensor([]float32{5}, 1)))
	y.Backward()
	assert.Equal(t, float32(8), x.Grad().Data()[0])
}

func TestTiedWeightGradient(t *testing.T) {
	x := NewTensor([]float32{0.5, -0.3}, 1, 2)
	w := NewTensor([]float32{0.1, 0.2, -0.4, 0.3}, 2, 2).RequireGrad()

	forward := func() float32 {
		return Sum(MatMul(MatMul(x, w), Transpose(w))).Data()[0]
	}
	loss := Sum(MatMul(MatMul(x, w), Transpose(w)))
	loss.Backward()

	// Compare against central finite differences.
	const eps = 1e-2
	for i := range w.Data() {
		orig := w.Data()[i]
		w.Data()[i] = orig + eps
		plus := forward()
		w.Data()[i] = orig - eps
		minus := forward()
		w.Data()[i] = orig
		assert.InDelta(t, (plus-minus)/(2*eps), w.Grad().Data()[i], 1e-2)
	}
}

func TestLinSpace(t *testing.T) {
	x := LinSpace(0, 1, 5)
	assert.Equal(t, []float32{0, 0.25, 0.5, 0.75, 1}, x.Data())
	// a single element collapses to the start point
	single := LinSpace(3, 7, 1)
	assert.Equal(t, []float32{3}, single.Data())
}

func TestLinearRegression(t *testing.T) {
	// y = 2x + 1
	x := LinSpace(0, 1, 100, 1)
	y := Add(Mul(x, NewScalar(2)), NewScalar(1)).NoGrad()

	model := NewLinear(1, 1)
	optimizer := NewSGD(model.Parameters(), 0.1)
	var lastLoss float32 = math32.MaxFloat32
	for i := 0; i < 200; i++ {
		yPred := model.Forward(x)
		loss := MeanSquareError(y, yPred)
		optimizer.ZeroGrad()
		loss.Backward()
		optimizer.Step()
		lastLoss = loss.Data()[0]
	}
	assert.Less(t, lastLoss, float32(0.01))
}

func TestSequential(t *testing.T) {
	x := Rand(32, 4)
	model := NewSequential(
		NewLinear(4, 2),
		NewTanh(),
		NewLinear(2, 4),
	)
	optimizer := NewAdam(model.Parameters(), 0.01)
	first := float32(0)
	last := float32(0)
	for i := 0; i < 100; i++ {
		loss := MeanSquareError(x, model.Forward(x))
		optimizer.ZeroGrad()
		loss.Backward()
		optimizer.Step()
		if i == 0 {
			first = loss.Data()[0]
		}
		last = loss.Data()[0]
	}
	assert.Less(t, last, first)
}
