package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Счетчики домена; экспортируются через /metrics
var (
	BurnsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ash_burns_started_total",
		Help: "Созданные burn-инвойсы",
	})

	BurnsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ash_burns_settled_total",
		Help: "Завершенные burn-инвойсы по исходу",
	}, []string{"result"})

	BurnPolls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ash_burn_polls_total",
		Help: "Опросы статуса инвойса у платежного бэкенда",
	})

	FinalSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ash_final_submissions_total",
		Help: "Попытки отправки финальной фразы по исходу",
	}, []string{"ok"})

	FragmentsGranted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ash_fragments_granted_total",
		Help: "Выданные фрагменты (burn и реферальные награды)",
	})
)
