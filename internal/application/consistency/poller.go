// Package consistency lee vistas compuestas que el backend actualiza con retraso
// después de una escritura.
package consistency

import (
	"context"
	"time"

	"github.com/jhoicas/colmado-api/internal/domain"
)

// SleepFunc espera d o hasta que ctx termine.
type SleepFunc func(ctx context.Context, d time.Duration) error

// FetchFunc lee la vista; (nil, nil) significa "vacío todavía".
type FetchFunc[T any] func(ctx context.Context) (*T, error)

// Poller reintenta solo ante resultado vacío, con espera fija entre intentos.
// El tiempo máximo de espera es (MaxAttempts-1) × Delay.
type Poller struct {
	MaxAttempts int
	Delay       time.Duration
	Sleep       SleepFunc // nil = reloj real
}

// New construye un Poller con el reloj real.
func New(maxAttempts int, delay time.Duration) Poller {
	return Poller{MaxAttempts: maxAttempts, Delay: delay}
}

// Poll ejecuta fetch hasta obtener un valor. Un error de fetch se devuelve de inmediato;
// si el último intento sigue vacío devuelve domain.ErrNotYetVisible.
func Poll[T any](ctx context.Context, p Poller, fetch FetchFunc[T]) (*T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = realSleep
	}

	for attempt := 1; ; attempt++ {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if v != nil {
			return v, nil
		}
		if attempt >= attempts {
			return nil, domain.ErrNotYetVisible
		}
		if err := sleep(ctx, p.Delay); err != nil {
			return nil, domain.Wrap(domain.ErrNotYetVisible, err)
		}
	}
}

func realSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
