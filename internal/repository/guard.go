package repository

import (
	"sync"
)

// Guard owns the single store connection and hands it out to one caller at a time.
// Connections wrapped by Guard (*pgx.Conn, *gorm.DB pinned to one sqlite connection)
// must not be used from several goroutines at once.
type Guard[C any] struct {
	mu   sync.Mutex
	conn C
}

func NewGuard[C any](conn C) *Guard[C] {
	return &Guard[C]{conn: conn}
}

// Do runs fn with exclusive access to the connection.
// The connection is released when fn returns or panics, it must not escape fn.
func (g *Guard[C]) Do(fn func(conn C) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return fn(g.conn)
}
