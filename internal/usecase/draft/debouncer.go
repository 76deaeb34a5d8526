package draft

import (
	"sync"
	"time"
)

// DefaultDebounce: пауза автосохранения после последнего изменения.
const DefaultDebounce = 1500 * time.Millisecond

// Debouncer откладывает fn до паузы в изменениях. Одновременно выполняется не больше одного запуска fn.
// Если fn вернул ошибку, работа остаётся отложенной и повторяется при следующем Trigger или Flush.
type Debouncer struct {
	fn       func() error
	interval time.Duration
	onError  func(error)

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	stopped bool

	run sync.Mutex
}

func NewDebouncer(interval time.Duration, fn func() error, onError func(error)) *Debouncer {
	if interval <= 0 {
		interval = DefaultDebounce
	}
	return &Debouncer{fn: fn, interval: interval, onError: onError}
}

// Trigger отмечает изменение и перезапускает таймер.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	if err := d.runPending(); err != nil && d.onError != nil {
		d.onError(err)
	}
}

// Flush выполняет отложенную работу сразу и ждёт её завершения.
// Если ничего не отложено, дожидается текущего запуска и возвращает nil.
func (d *Debouncer) Flush() error {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	return d.runPending()
}

// Stop отменяет отложенную работу. Последующие Trigger игнорируются.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Pending сообщает, есть ли несохранённые изменения.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer) runPending() error {
	d.run.Lock()
	defer d.run.Unlock()

	d.mu.Lock()
	if !d.pending || d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.pending = false
	d.mu.Unlock()

	err := d.fn()
	if err != nil {
		d.mu.Lock()
		if !d.stopped {
			d.pending = true
		}
		d.mu.Unlock()
	}
	return err
}
