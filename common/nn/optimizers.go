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

type Optimizer interface {
	ZeroGrad()
	Step()
	SetWeightDecay(wd float32)
	SetLr(lr float32)
}

type baseOptimizer struct {
	params []*Tensor
	lr     float32
	wd     float32
}

func (o *baseOptimizer) ZeroGrad() {
	for _, p := range o.params {
		p.grad = nil
	}
}

func (o *baseOptimizer) SetWeightDecay(wd float32) {
	o.wd = wd
}

func (o *baseOptimizer) SetLr(lr float32) {
	o.lr = lr
}

type sgdOptimizer struct {
	baseOptimizer
}

// NewSGD creates a stochastic gradient descent optimizer.
func NewSGD(params []*Tensor, lr float32) Optimizer {
	return &sgdOptimizer{baseOptimizer{params: params, lr: lr}}
}

func (o *sgdOptimizer) Step() {
	for _, p := range o.params {
		if p.grad == nil {
			continue
		}
		for i := range p.data {
			p.data[i] -= o.lr * (p.grad.data[i] + o.wd*p.data[i])
		}
	}
}

type adamOptimizer struct {
	baseOptimizer
	beta1 float32
	beta2 float32
	eps   float32
	t     int
	m     map[*Tensor][]float32
	v     map[*Tensor][]float32
}

// NewAdam creates an Adam optimizer.
func NewAdam(params []*Tensor, lr float32) Optimizer {
	return &adamOptimizer{
		baseOptimizer: baseOptimizer{params: params, lr: lr},
		beta1:         0.9,
		beta2:         0.999,
		eps:           1e-8,
		m:             make(map[*Tensor][]float32),
		v:             make(map[*Tensor][]float32),
	}
}

func (o *adamOptimizer) Step() {
	o.t++
	correction1 := 1 - math32.Pow(o.beta1, float32(o.t))
	correction2 := 1 - math32.Pow(o.beta2, float32(o.t))
	for _, p := range o.params {
		if p.grad == nil {
			continue
		}
		m, ok := o.m[p]
		if !ok {
			m = make([]float32, len(p.data))
			o.m[p] = m
		}
		v, ok := o.v[p]
		if !ok {
			v = make([]float32, len(p.data))
			o.v[p] = v
		}
		for i := range p.data {
			g := p.grad.data[i] + o.wd*p.data[i]
			m[i] = o.beta1*m[i] + (1-o.beta1)*g
			v[i] = o.beta2*v[i] + (1-o.beta2)*g*g
			mHat := m[i] / correction1
			vHat := v[i] / correction2
			p.data[i] -= o.lr * mHat / (math32.Sqrt(vHat) + o.eps)
		}
	}
}
