package domain

// ConsumerState — состояние consumer group с точки зрения health-проверки.
type ConsumerState int32

const (
	StateStarting ConsumerState = iota
	StateReady
	StateCrashed // терминальное в рамках процесса
)

func (s ConsumerState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateCrashed:
		return "crashed"
	default:
		return "starting"
	}
}

// LifecycleKind — тип события жизненного цикла консьюмера.
type LifecycleKind int

const (
	LifecycleSubscribed LifecycleKind = iota + 1
	LifecycleCrashed
	LifecycleStopped
)

func (k LifecycleKind) String() string {
	switch k {
	case LifecycleSubscribed:
		return "subscribed"
	case LifecycleCrashed:
		return "crashed"
	case LifecycleStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// LifecycleEvent — уведомление консьюмера о смене фазы.
// Err заполнен для Crashed и для Stopped с ошибкой.
type LifecycleEvent struct {
	Kind LifecycleKind
	Err  error
}
