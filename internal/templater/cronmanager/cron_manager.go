// Пакет для управления cron-задачами сервера: закрытие простаивающих сессий
// редактора и другие периодические работы.
package cronmanager

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/robfig/cron/v3"
)

type CronJobFunc func()

type Job struct {
	Func     CronJobFunc
	Schedule string
}

type JobRegistry map[string]Job

type CronManager struct {
	dispatcher  *cron.Cron
	jobs        map[string]cron.EntryID
	mu          sync.Mutex
	jobRegistry JobRegistry
}

// NewCronManager создает менеджер задач по реестру. Паники задач перехватываются
// и пишутся в slog.
func NewCronManager(jobRegistry JobRegistry) *CronManager {
	logger := slogLogger{slog.Default()}
	dispatcher := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)

	return &CronManager{
		dispatcher:  dispatcher,
		jobs:        make(map[string]cron.EntryID),
		jobRegistry: jobRegistry,
	}
}

// LoadJobs заново добавляет в расписание все задачи реестра. Задачи с
// некорректным расписанием пропускаются, их ошибки возвращаются вместе.
func (cm *CronManager) LoadJobs() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for name, entryID := range cm.jobs {
		cm.dispatcher.Remove(entryID)
		delete(cm.jobs, name)
	}

	var errs []error
	for _, name := range slices.Sorted(maps.Keys(cm.jobRegistry)) {
		if err := cm.addJob(name); err != nil {
			slog.Error("Error adding job", "name", name, "err", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("load cron jobs: %v", errs)
	}
	return nil
}

func (cm *CronManager) addJob(name string) error {
	job, exists := cm.jobRegistry[name]
	if !exists {
		return fmt.Errorf("no job function registered for name: %s", name)
	}

	id, err := cm.dispatcher.AddFunc(job.Schedule, job.Func)
	if err != nil {
		return fmt.Errorf("add job '%s': %w", name, err)
	}
	cm.jobs[name] = id
	return nil
}

func (cm *CronManager) RemoveJob(name string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if entryID, exists := cm.jobs[name]; exists {
		cm.dispatcher.Remove(entryID)
		delete(cm.jobs, name)
	}
}

// Jobs - имена задач в расписании.
func (cm *CronManager) Jobs() []string {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return slices.Sorted(maps.Keys(cm.jobs))
}

func (cm *CronManager) Start() {
	cm.dispatcher.Start()
}

// Stop останавливает расписание и ждет завершения запущенных задач.
func (cm *CronManager) Stop() {
	ctx := cm.dispatcher.Stop()
	<-ctx.Done()
}

// slogLogger - cron.Logger поверх slog.
type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Info(msg string, keysAndValues ...interface{}) {
	s.l.Debug("Cron: "+msg, keysAndValues...)
}

func (s slogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	s.l.Error("Cron: "+msg, append(keysAndValues, "err", err)...)
}
