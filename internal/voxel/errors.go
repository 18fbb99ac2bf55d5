package voxel

import "errors"

// Таксономия ошибок хранилища. Вызывающая сторона проверяет их через errors.Is,
// конкретные ошибки оборачиваются через fmt.Errorf("...: %w").
var (
	// ErrOutOfRange - идентификатор материала за пределами палитры
	ErrOutOfRange = errors.New("идентификатор вне допустимого диапазона")
	// ErrResourceExhausted - палитра заполнена
	ErrResourceExhausted = errors.New("ресурс исчерпан")
	// ErrIOFailure - файл не удалось открыть, прочитать или записать
	ErrIOFailure = errors.New("ошибка ввода-вывода")
	// ErrOutOfBounds - координата вне адресуемого мира (режим bounds_policy=report)
	ErrOutOfBounds = errors.New("координата вне границ мира")
	// ErrQueueFull - очередь загрузки чанков переполнена
	ErrQueueFull = errors.New("очередь загрузки переполнена")
	// ErrClosed - менеджер мира остановлен
	ErrClosed = errors.New("менеджер мира остановлен")
)
