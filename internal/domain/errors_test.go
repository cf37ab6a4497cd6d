package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/colmado-api/internal/domain"
)

func TestWrap_ConservaClaseYCausa(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := domain.Wrap(domain.ErrDuplicate, cause)

	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, domain.ErrNotFound, domain.Wrap(domain.ErrNotFound, nil))
}

func TestUserMessage_NoFiltraErroresCrudos(t *testing.T) {
	raw := errors.New(`pq: insert or update on table "product_categories" violates foreign key constraint`)

	cases := []struct {
		err  error
		want string
	}{
		{domain.Wrap(domain.ErrCategoryAssignmentFailed, raw), "no se pudieron asignar las categorías; el producto no fue creado"},
		{domain.Wrap(domain.ErrTransport, raw), "no hay conexión con el servidor; verifique su conexión e intente de nuevo"},
		{fmt.Errorf("leer: %w", context.DeadlineExceeded), "no hay conexión con el servidor; verifique su conexión e intente de nuevo"},
		{domain.Wrap(domain.ErrDuplicate, raw), "ya existe un registro con esos datos"},
		{domain.ErrInvalidPrice, domain.ErrInvalidPrice.Error()},
		{raw, "ocurrió un error inesperado"},
	}
	for _, tc := range cases {
		got := domain.UserMessage(tc.err)
		assert.Equal(t, tc.want, got)
		assert.NotContains(t, got, "violates")
	}
	assert.Empty(t, domain.UserMessage(nil))
}

func TestAssociationFailed_EsInsercionDependiente(t *testing.T) {
	assert.ErrorIs(t, domain.ErrAssociationFailed, domain.ErrDependentInsert)
	assert.ErrorIs(t, domain.ErrCategoryAssignmentFailed, domain.ErrDependentInsert)
	assert.NotErrorIs(t, domain.ErrUpdateIncomplete, domain.ErrDependentInsert)
}
