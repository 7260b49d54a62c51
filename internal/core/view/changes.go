// Package view содержит долгоживущие представления коллекций: подписка на снимки,
// состояние фильтров и сортировки, пересчет отображаемой последовательности.
package view

import (
	"errors"
	"sync"
)

var (
	ErrUnknownSortField = errors.New("unknown sort field")
	ErrAlreadyStarted   = errors.New("view already started")
	ErrClosed           = errors.New("view is closed")
)

// changes - сигнал "состояние пересчитано". Буфер на одно значение:
// несколько пересчетов подряд схлопываются в один сигнал, отправка никогда не блокирует.
type changes struct {
	once sync.Once
	ch   chan struct{}
}

func newChanges() *changes {
	return &changes{ch: make(chan struct{}, 1)}
}

func (c *changes) notify() {
	select {
	case c.ch <- struct{}{}:
	default:
	}
}

func (c *changes) close() {
	c.once.Do(func() { close(c.ch) })
}
