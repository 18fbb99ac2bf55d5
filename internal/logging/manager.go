package logging

import (
	"fmt"
	"sort"
	"sync"
)

// Компоненты сервера воксельного мира
const (
	ComponentWorld     = "world"
	ComponentStorage   = "storage"
	ComponentAPI       = "api"
	ComponentEventBus  = "eventbus"
	ComponentGenerator = "generator"
)

// LoggerManager хранит по одному логгеру на компонент
type LoggerManager struct {
	mu      sync.Mutex
	loggers map[string]*Logger
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает общий реестр логгеров процесса
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = newLoggerManager()
	})
	return globalManager
}

func newLoggerManager() *LoggerManager {
	return &LoggerManager{loggers: make(map[string]*Logger)}
}

// GetLogger возвращает логгер компонента; первый вызов открывает его файл
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("логгер %s: %w", component, err)
	}
	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger при ошибке файла отдаёт консольный логгер без кэширования,
// чтобы следующий вызов снова попробовал открыть файл
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err == nil {
		return logger
	}

	base := current()
	base.Warn("файловый лог компонента %s недоступен: %v", component, err)
	return &Logger{
		component:       component,
		consoleLogger:   base.consoleLogger,
		minConsoleLevel: INFO,
		minFileLevel:    ERROR,
	}
}

// SetLogLevel меняет уровни уже созданного логгера
func (lm *LoggerManager) SetLogLevel(component string, console, file LogLevel) error {
	lm.mu.Lock()
	logger, ok := lm.loggers[component]
	lm.mu.Unlock()

	if !ok {
		return fmt.Errorf("логгер компонента %s не создан", component)
	}
	logger.SetLevels(console, file)
	return nil
}

// ListComponents возвращает имена созданных логгеров по алфавиту
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.Lock()
	names := make([]string, 0, len(lm.loggers))
	for name := range lm.loggers {
		names = append(names, name)
	}
	lm.mu.Unlock()

	sort.Strings(names)
	return names
}

// CloseAll закрывает файлы всех логгеров и очищает реестр.
// Возвращает первую встретившуюся ошибку.
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	loggers := lm.loggers
	lm.loggers = make(map[string]*Logger)
	lm.mu.Unlock()

	var first error
	for _, name := range sortedKeys(loggers) {
		if err := loggers[name].Close(); err != nil && first == nil {
			first = fmt.Errorf("закрытие логгера %s: %w", name, err)
		}
	}
	return first
}

func sortedKeys(m map[string]*Logger) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetComponentLogger возвращает логгер компонента из общего реестра
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

// GetWorldLogger - логгер менеджера мира
func GetWorldLogger() *Logger { return GetComponentLogger(ComponentWorld) }

// GetStorageLogger - логгер архивов чанков
func GetStorageLogger() *Logger { return GetComponentLogger(ComponentStorage) }

// GetAPILogger - логгер REST API
func GetAPILogger() *Logger { return GetComponentLogger(ComponentAPI) }
