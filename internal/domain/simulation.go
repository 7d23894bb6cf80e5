package domain

// Simulation — наблюдаемое состояние симуляции.
//
// Состоянием владеет SimSpace Weaver; здесь только снимок ответа DescribeSimulation.
type Simulation struct {
	// Name — имя симуляции (единственный идентификатор, который мы передаём дальше).
	Name string `json:"name"`

	// Arn — ARN симуляции.
	Arn string `json:"arn,omitempty"`

	// Status — текущий статус симуляции.
	Status SimulationStatus `json:"status"`

	// TargetStatus — статус, к которому сервис ведёт симуляцию.
	TargetStatus string `json:"target_status,omitempty"`

	// ClockStatus — статус первых часов из LiveSimulationState.
	// UNKNOWN, если сервис не вернул ни одних часов.
	ClockStatus ClockStatus `json:"clock_status"`

	// Domains — имена доменов из LiveSimulationState.
	Domains []string `json:"domains,omitempty"`
}

// SnapshotInProgress возвращает true, пока сервис записывает snapshot.
func (s *Simulation) SnapshotInProgress() bool {
	return s.Status == SimulationStatusSnapshotInProgress
}

// App — наблюдаемое состояние приложения.
type App struct {
	Name       string    `json:"name"`
	Domain     string    `json:"domain"`
	Simulation string    `json:"simulation"`
	Status     AppStatus `json:"status"`
}

// StartOutcome — результат запроса на запуск.
//
// Конфликт от сервиса означает, что переход уже произошёл,
// и это не ошибка.
type StartOutcome int

const (
	// StartRequested — сервис принял запрос на запуск.
	StartRequested StartOutcome = iota + 1

	// AlreadyStarted — сервис ответил конфликтом: объект уже запущен.
	AlreadyStarted
)

// String возвращает строковое представление StartOutcome.
func (o StartOutcome) String() string {
	switch o {
	case StartRequested:
		return "requested"
	case AlreadyStarted:
		return "already_started"
	default:
		return "unknown"
	}
}

// Stage — стадия жизненного цикла, которую проходит драйвер.
type Stage string

const (
	StageSimulation Stage = "simulation"
	StageApp        Stage = "app"
	StageClock      Stage = "clock"
	StageSnapshot   Stage = "snapshot"
)

// Destination — куда экспортировать snapshot.
type Destination struct {
	// BucketName — S3 bucket. Может быть пустым: значение не валидируется
	// и передаётся сервису как есть.
	BucketName string `json:"bucket_name"`

	// ObjectKeyPrefix — префикс ключа внутри bucket (опционально).
	ObjectKeyPrefix string `json:"object_key_prefix,omitempty"`
}

// String возвращает адрес назначения в виде s3://bucket/prefix.
func (d Destination) String() string {
	if d.ObjectKeyPrefix == "" {
		return "s3://" + d.BucketName
	}
	return "s3://" + d.BucketName + "/" + d.ObjectKeyPrefix
}

// StartSimulationRequest — параметры запуска новой симуляции.
type StartSimulationRequest struct {
	Name            string
	RoleArn         string
	Description     string
	MaximumDuration string

	// SchemaBucket/SchemaKey — схема симуляции в S3.
	SchemaBucket string
	SchemaKey    string

	// SnapshotBucket/SnapshotKey — запуск из ранее сделанного snapshot.
	// Взаимоисключающе со схемой.
	SnapshotBucket string
	SnapshotKey    string
}

// FromSnapshot возвращает true, если симуляция стартует из snapshot.
func (r *StartSimulationRequest) FromSnapshot() bool {
	return r.SnapshotBucket != "" || r.SnapshotKey != ""
}

// ReadyForSnapshot возвращает true, если симуляция, app и часы в STARTED.
// app == nil означает, что app ещё не создан.
func ReadyForSnapshot(sim *Simulation, app *App) bool {
	return sim != nil && sim.Status.IsStarted() &&
		sim.ClockStatus.IsStarted() &&
		app != nil && app.Status.IsStarted()
}
