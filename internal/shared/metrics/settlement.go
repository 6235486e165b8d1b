package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Settlement agrupa os coletores do motor de liquidação
type Settlement struct {
	operations *prometheus.CounterVec
	volume     *prometheus.CounterVec
}

// NewSettlement registra os coletores no registerer informado
// Passe prometheus.DefaultRegisterer para expor em /metrics
func NewSettlement(reg prometheus.Registerer) *Settlement {
	s := &Settlement{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_operations_total",
			Help: "Operações de liquidação por resultado (ok ou nome do erro)",
		}, []string{"op", "result"}),
		volume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_native_volume_total",
			Help: "Unidades nativas movimentadas por tipo de movimento",
		}, []string{"movement"}),
	}
	reg.MustRegister(s.operations, s.volume)
	return s
}

func (s *Settlement) Operation(op, result string) {
	s.operations.WithLabelValues(op, result).Inc()
}

func (s *Settlement) Volume(movement string, amount uint64) {
	s.volume.WithLabelValues(movement).Add(float64(amount))
}
