package classifier

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/ocumetry/eyelid/internal/domain/model"
)

const inputDim = 3

// network is a 3 -> hidden -> 1 feed-forward net with tanh hidden units and
// a sigmoid output, so predictions land in (0, 1) without clamping.
type network struct {
	hidden int
	w1     *mat.Dense    // hidden x inputDim
	b1     *mat.VecDense // hidden
	w2     *mat.VecDense // hidden
	b2     float64
}

// newNetwork initializes a network with small deterministic random weights.
func newNetwork(hidden int, seed int64) *network {
	rng := rand.New(rand.NewSource(seed))
	randSlice := func(n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = rng.NormFloat64() * 0.5
		}
		return out
	}
	return &network{
		hidden: hidden,
		w1:     mat.NewDense(hidden, inputDim, randSlice(hidden*inputDim)),
		b1:     mat.NewVecDense(hidden, make([]float64, hidden)),
		w2:     mat.NewVecDense(hidden, randSlice(hidden)),
		b2:     0,
	}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// forward runs one sample through the net, returning the hidden activations
// (needed for backprop) and the output.
func (n *network) forward(x model.Sample) (*mat.VecDense, float64) {
	xv := mat.NewVecDense(inputDim, []float64{x[0], x[1], x[2]})

	a1 := mat.NewVecDense(n.hidden, nil)
	a1.MulVec(n.w1, xv)
	a1.AddVec(a1, n.b1)
	for i := 0; i < n.hidden; i++ {
		a1.SetVec(i, math.Tanh(a1.AtVec(i)))
	}

	return a1, sigmoid(mat.Dot(n.w2, a1) + n.b2)
}

// Predict implements Model.
func (n *network) Predict(x model.Sample) float64 {
	_, y := n.forward(x)
	return y
}

// grads accumulates parameter gradients for one optimizer step.
type grads struct {
	w1 *mat.Dense
	b1 *mat.VecDense
	w2 *mat.VecDense
	b2 float64
}

func newGrads(hidden int) *grads {
	return &grads{
		w1: mat.NewDense(hidden, inputDim, nil),
		b1: mat.NewVecDense(hidden, nil),
		w2: mat.NewVecDense(hidden, nil),
	}
}

func (g *grads) zero() {
	g.w1.Zero()
	g.b1.Zero()
	g.w2.Zero()
	g.b2 = 0
}

// accumulate backpropagates dLoss/dOutput for one sample into g. a1 and y
// must come from a forward pass of the same sample on the same weights.
func (n *network) accumulate(g *grads, x model.Sample, a1 *mat.VecDense, y, dOut float64) {
	gPre := dOut * y * (1 - y)

	g.b2 += gPre
	for i := 0; i < n.hidden; i++ {
		ai := a1.AtVec(i)
		g.w2.SetVec(i, g.w2.AtVec(i)+gPre*ai)

		// Through tanh.
		dz := gPre * n.w2.AtVec(i) * (1 - ai*ai)
		g.b1.SetVec(i, g.b1.AtVec(i)+dz)
		for j := 0; j < inputDim; j++ {
			g.w1.Set(i, j, g.w1.At(i, j)+dz*x[j])
		}
	}
}

// adam implements the Adam optimizer over the network parameters. Plain
// gradient descent cannot reach the anchors within the small fixed epoch
// counts the trainers run with.
type adam struct {
	rate   float64
	step   int
	m1, v1 []float64 // moments for w1
	mb, vb []float64 // moments for b1
	m2, v2 []float64 // moments for w2
	mo, vo [1]float64
}

func newAdam(hidden int, rate float64) *adam {
	return &adam{
		rate: rate,
		m1:   make([]float64, hidden*inputDim),
		v1:   make([]float64, hidden*inputDim),
		mb:   make([]float64, hidden),
		vb:   make([]float64, hidden),
		m2:   make([]float64, hidden),
		v2:   make([]float64, hidden),
	}
}

func (a *adam) apply(n *network, g *grads) {
	a.step++
	a.update(n.w1.RawMatrix().Data, g.w1.RawMatrix().Data, a.m1, a.v1)
	a.update(n.b1.RawVector().Data, g.b1.RawVector().Data, a.mb, a.vb)
	a.update(n.w2.RawVector().Data, g.w2.RawVector().Data, a.m2, a.v2)

	pb := [1]float64{n.b2}
	gb := [1]float64{g.b2}
	a.update(pb[:], gb[:], a.mo[:], a.vo[:])
	n.b2 = pb[0]
}

func (a *adam) update(p, g, m, v []float64) {
	const (
		beta1 = 0.9
		beta2 = 0.999
		eps   = 1e-8
	)
	bc1 := 1 - math.Pow(beta1, float64(a.step))
	bc2 := 1 - math.Pow(beta2, float64(a.step))
	for i := range p {
		m[i] = beta1*m[i] + (1-beta1)*g[i]
		v[i] = beta2*v[i] + (1-beta2)*g[i]*g[i]
		p[i] -= a.rate * (m[i] / bc1) / (math.Sqrt(v[i]/bc2) + eps)
	}
}
