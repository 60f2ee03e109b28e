package ml

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Network is a one-hidden-layer tanh network with a multi-label primary head
// and an optional softmax secondary head.
type Network struct {
	W1 *mat.Dense // in x hidden
	B1 *mat.Dense // 1 x hidden
	Wp *mat.Dense // hidden x primary
	Bp *mat.Dense // 1 x primary
	Ws *mat.Dense // hidden x secondary, nil without a secondary head
	Bs *mat.Dense // 1 x secondary
}

// NewNetwork initializes weights with Xavier-uniform draws from rng.
func NewNetwork(in, hidden, primary, secondary int, rng *rand.Rand) *Network {
	n := &Network{
		W1: xavier(in, hidden, rng),
		B1: mat.NewDense(1, hidden, nil),
		Wp: xavier(hidden, primary, rng),
		Bp: mat.NewDense(1, primary, nil),
	}
	if secondary > 0 {
		n.Ws = xavier(hidden, secondary, rng)
		n.Bs = mat.NewDense(1, secondary, nil)
	}
	return n
}

func xavier(rows, cols int, rng *rand.Rand) *mat.Dense {
	limit := math.Sqrt(6 / float64(rows+cols))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * limit
	}
	return mat.NewDense(rows, cols, data)
}

// params lists the trainable matrices in a fixed order
func (n *Network) params() []*mat.Dense {
	ps := []*mat.Dense{n.W1, n.B1, n.Wp, n.Bp}
	if n.Ws != nil {
		ps = append(ps, n.Ws, n.Bs)
	}
	return ps
}

type activations struct {
	hidden    *mat.Dense
	primary   *mat.Dense
	secondary *mat.Dense
}

func (n *Network) forward(x mat.Matrix) activations {
	var act activations

	act.hidden = &mat.Dense{}
	act.hidden.Mul(x, n.W1)
	addRow(act.hidden, n.B1)
	act.hidden.Apply(func(_, _ int, v float64) float64 { return math.Tanh(v) }, act.hidden)

	act.primary = &mat.Dense{}
	act.primary.Mul(act.hidden, n.Wp)
	addRow(act.primary, n.Bp)

	if n.Ws != nil {
		act.secondary = &mat.Dense{}
		act.secondary.Mul(act.hidden, n.Ws)
		addRow(act.secondary, n.Bs)
	}
	return act
}

// Logits runs a single input row through the network.
func (n *Network) Logits(input []float64) (primary, secondary []float64) {
	act := n.forward(mat.NewDense(1, len(input), input))
	primary = append([]float64(nil), act.primary.RawRowView(0)...)
	if act.secondary != nil {
		secondary = append([]float64(nil), act.secondary.RawRowView(0)...)
	}
	return primary, secondary
}

func addRow(m, row *mat.Dense) {
	r, _ := m.Dims()
	b := row.RawRowView(0)
	for i := 0; i < r; i++ {
		floats.Add(m.RawRowView(i), b)
	}
}

func colSums(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(1, c, nil)
	sums := out.RawRowView(0)
	for i := 0; i < r; i++ {
		floats.Add(sums, m.RawRowView(i))
	}
	return out
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Softmax returns softmax(logits/tau). A non-positive tau is treated as 1.
func Softmax(logits []float64, tau float64) []float64 {
	if tau <= 0 {
		tau = 1
	}
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}
	peak := floats.Max(logits) / tau
	for i, z := range logits {
		out[i] = math.Exp(z/tau - peak)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
