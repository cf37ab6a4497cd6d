// Package saga registra deshacer de pasos ya completados y los ejecuta en orden inverso
// cuando un paso posterior falla.
package saga

import (
	"context"
	"sync"

	"github.com/jhoicas/colmado-api/pkg/logger"
)

// UndoFunc revierte un paso completado.
type UndoFunc func(ctx context.Context) error

type step struct {
	name string
	undo UndoFunc
}

// Compensator pila de deshacer de una sola ejecución de un flujo. No se reutiliza entre llamadas.
type Compensator struct {
	log      *logger.Logger
	workflow string

	mu    sync.Mutex
	steps []step
}

// NewCompensator crea la pila vacía para el flujo indicado.
func NewCompensator(log *logger.Logger, workflow string) *Compensator {
	if log == nil {
		log = logger.Nop()
	}
	return &Compensator{log: log, workflow: workflow}
}

// Record apila el deshacer de un paso que acaba de completarse.
func (c *Compensator) Record(name string, undo UndoFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = append(c.steps, step{name: name, undo: undo})
}

// Len cantidad de pasos pendientes de deshacer.
func (c *Compensator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.steps)
}

// Compensate ejecuta los deshacer del más reciente al más antiguo y vacía la pila.
// Corre aunque ctx esté cancelado. Las fallas se registran y nunca se devuelven:
// el llamador debe ver el error que disparó la compensación.
func (c *Compensator) Compensate(ctx context.Context) {
	c.mu.Lock()
	steps := c.steps
	c.steps = nil
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		if err := s.undo(ctx); err != nil {
			c.log.Warn().Err(err).
				Str("workflow", c.workflow).
				Str("step", s.name).
				Msg("compensación fallida (ignorada)")
			continue
		}
		c.log.Debug().
			Str("workflow", c.workflow).
			Str("step", s.name).
			Msg("paso compensado")
	}
}
