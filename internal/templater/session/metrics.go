package session

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	fieldsInsertedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "templater",
		Name:      "fields_inserted_total",
		Help:      "Total count of attribute fields inserted into documents",
	})

	reconciliationsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "templater",
		Name:      "reconciliations_total",
		Help:      "Total count of field configuration changes by result",
	}, []string{"changed"})

	savesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "templater",
		Name:      "saves_total",
		Help:      "Total count of built template manifests",
	})

	imagesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "templater",
		Name:      "images_loaded_total",
		Help:      "Total count of loaded images by result",
	}, []string{"result"})

	activeSessionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "templater",
		Name:      "sessions_active",
		Help:      "Count of open editor sessions",
	})
)

// RegisterMetrics регистрирует метрики сессий. Повторная регистрация не ошибка.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		fieldsInsertedCounter,
		reconciliationsCounter,
		savesCounter,
		imagesCounter,
		activeSessionsGauge,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
