package ports

import "contact-monitor/internal/domain/model"

// CycleObserver is notified about cycle and channel outcomes.
type CycleObserver interface {
	ObserveCycle(result model.CycleResult, err error)
	ObserveChannel(channel string, err error)
}
