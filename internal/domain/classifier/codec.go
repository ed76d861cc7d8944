package classifier

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// payload is the durable JSON form of a trained network.
type payload struct {
	Hidden int       `json:"hidden"`
	W1     []float64 `json:"w1"`
	B1     []float64 `json:"b1"`
	W2     []float64 `json:"w2"`
	B2     float64   `json:"b2"`
}

// Encode serializes a trained model for the artifact store.
func Encode(m Model) ([]byte, error) {
	n, ok := m.(*network)
	if !ok {
		return nil, fmt.Errorf("%w: unknown model type %T", ErrBadPayload, m)
	}
	p := payload{
		Hidden: n.hidden,
		W1:     append([]float64(nil), n.w1.RawMatrix().Data...),
		B1:     append([]float64(nil), n.b1.RawVector().Data...),
		W2:     append([]float64(nil), n.w2.RawVector().Data...),
		B2:     n.b2,
	}
	return json.Marshal(p)
}

// Decode restores a model previously produced by Encode.
func Decode(data []byte) (Model, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if p.Hidden <= 0 ||
		len(p.W1) != p.Hidden*inputDim ||
		len(p.B1) != p.Hidden ||
		len(p.W2) != p.Hidden {
		return nil, ErrBadPayload
	}
	return &network{
		hidden: p.Hidden,
		w1:     mat.NewDense(p.Hidden, inputDim, p.W1),
		b1:     mat.NewVecDense(p.Hidden, p.B1),
		w2:     mat.NewVecDense(p.Hidden, p.W2),
		b2:     p.B2,
	}, nil
}
