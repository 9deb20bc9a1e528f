package compose

import (
	"strings"

	"github.com/vedsharma/apireplay/internal/model"
)

// Substitutor replaces {{key}} placeholders using a variable list.
//
// Variables are applied once each, in list order, replacing every
// occurrence. Text inserted by one variable is only expanded by variables
// that come later in the list; there is no fixed-point iteration, and
// unknown placeholders are left as they are.
type Substitutor struct {
	vars []model.Variable
}

func NewSubstitutor(vars []model.Variable) *Substitutor {
	return &Substitutor{vars: vars}
}

func (s *Substitutor) String(input string) string {
	out := input
	for _, v := range s.vars {
		if v.Key == "" {
			continue
		}
		out = strings.ReplaceAll(out, "{{"+v.Key+"}}", v.Value)
	}
	return out
}

// Pairs substitutes both key and value of every row, keeping the enabled
// flags.
func (s *Substitutor) Pairs(rows []model.KeyValue) []model.KeyValue {
	out := make([]model.KeyValue, len(rows))
	for i, row := range rows {
		out[i] = model.KeyValue{
			Key:     s.String(row.Key),
			Value:   s.String(row.Value),
			Enabled: row.Enabled,
		}
	}
	return out
}
