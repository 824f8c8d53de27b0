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

type Layer interface {
	Parameters() []*Tensor
	Forward(x *Tensor) *Tensor
}

type Model Layer

type linearLayer struct {
	W *Tensor
	B *Tensor
}

// NewLinear creates a fully connected layer.
func NewLinear(in, out int) Layer {
	return &linearLayer{
		W: Normal(0, 1.0/math32.Sqrt(float32(in)), in, out).RequireGrad(),
		B: Zeros(out).RequireGrad(),
	}
}

func (l *linearLayer) Parameters() []*Tensor {
	return []*Tensor{l.W, l.B}
}

func (l *linearLayer) Forward(x *Tensor) *Tensor {
	return Add(MatMul(x, l.W), l.B)
}

type sigmoidLayer struct{}

func NewSigmoid() Layer {
	return &sigmoidLayer{}
}

func (s *sigmoidLayer) Parameters() []*Tensor {
	return nil
}

func (s *sigmoidLayer) Forward(x *Tensor) *Tensor {
	return Sigmoid(x)
}

type tanhLayer struct{}

func NewTanh() Layer {
	return &tanhLayer{}
}

func (t *tanhLayer) Parameters() []*Tensor {
	return nil
}

func (t *tanhLayer) Forward(x *Tensor) *Tensor {
	return Tanh(x)
}

type reluLayer struct{}

func NewReLU() Layer {
	return &reluLayer{}
}

func (r *reluLayer) Parameters() []*Tensor {
	return nil
}

func (r *reluLayer) Forward(x *Tensor) *Tensor {
	return ReLU(x)
}

type sequential struct {
	layers []Layer
}

// NewSequential composes layers into a model applied in order.
func NewSequential(layers ...Layer) Model {
	return &sequential{layers: layers}
}

func (s *sequential) Parameters() []*Tensor {
	var params []*Tensor
	for _, l := range s.layers {
		params = append(params, l.Parameters()...)
	}
	return params
}

func (s *sequential) Forward(x *Tensor) *Tensor {
	for _, l := range s.layers {
		x = l.Forward(x)
	}
	return x
}
