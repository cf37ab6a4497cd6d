package supabase_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/colmado-api/internal/application/ports"
	"github.com/jhoicas/colmado-api/internal/domain"
	"github.com/jhoicas/colmado-api/internal/domain/entity"
	"github.com/jhoicas/colmado-api/internal/domain/repository"
	"github.com/jhoicas/colmado-api/internal/infrastructure/supabase"
	"github.com/jhoicas/colmado-api/pkg/config"
)

const serviceKey = "service-key"

func newClient(t *testing.T, h http.HandlerFunc) *supabase.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return supabase.NewClient(config.SupabaseConfig{URL: srv.URL + "/", ServiceKey: serviceKey}, nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClassify_CodigosDePostgres(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   map[string]string
		want   error
	}{
		{"único", http.StatusConflict, map[string]string{"code": "23505", "message": "duplicate key"}, domain.ErrDuplicate},
		{"fk", http.StatusConflict, map[string]string{"code": "23503", "message": "violates foreign key"}, domain.ErrForeignKey},
		{"conflicto de storage", http.StatusConflict, map[string]string{"statusCode": "409", "error": "Duplicate"}, domain.ErrDuplicate},
		{"una fila", http.StatusNotAcceptable, map[string]string{"code": "PGRST116"}, domain.ErrNotFound},
		{"no autorizado", http.StatusUnauthorized, map[string]string{"message": "JWT expired"}, domain.ErrUnauthorized},
		{"caído", http.StatusBadGateway, map[string]string{}, domain.ErrTransport},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, tc.body)
			})
			err := supabase.NewProductImageRepository(c).DeleteByProduct(context.Background(), "p1")

			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			var apiErr *supabase.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.Status)
		})
	}
}

func TestClient_ErrorDeRed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := supabase.NewClient(config.SupabaseConfig{URL: srv.URL}, nil)

	err := supabase.NewProductRepository(c).Delete(context.Background(), "p1")

	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestProductRepository_Insert(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/products", r.URL.Path)
		assert.Equal(t, serviceKey, r.Header.Get("apikey"))
		assert.Equal(t, "Bearer "+serviceKey, r.Header.Get("Authorization"))
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Coca Cola", body["name"])
		assert.NotContains(t, body, "id")

		writeJSON(w, http.StatusCreated, []map[string]any{{
			"id": "p1", "colmado_id": "c1", "name": "Coca Cola", "price": 25.5,
			"stock": 10, "is_active": true, "created_at": "2026-01-02T03:04:05Z",
		}})
	})

	p, err := supabase.NewProductRepository(c).Insert(context.Background(), &entity.Product{
		ColmadoID: "c1", Name: "Coca Cola", Price: decimal.RequireFromString("25.5"), Stock: 10, IsActive: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.True(t, decimal.RequireFromString("25.5").Equal(p.Price))
	assert.Equal(t, 2026, p.CreatedAt.Year())
}

func TestProductRepository_GetComposed(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.p1", r.URL.Query().Get("id"))
		assert.Contains(t, r.URL.Query().Get("select"), "product_images(")
		writeJSON(w, http.StatusOK, []map[string]any{{
			"id": "p1", "colmado_id": "c1", "name": "Coca Cola", "price": "25", "stock": 1, "is_active": true,
			"product_images": []map[string]any{
				{"url": "https://x/b.jpg", "display_order": 1, "is_primary": false},
				{"url": "https://x/a.jpg", "display_order": 0, "is_primary": true},
			},
			"product_categories": []map[string]any{{"category_id": "bebidas"}},
		}})
	})

	p, err := supabase.NewProductRepository(c).GetComposed(context.Background(), "p1")

	require.NoError(t, err)
	require.Len(t, p.Images, 2)
	assert.Equal(t, "https://x/a.jpg", p.Images[0].URL, "ordenadas por display_order")
	assert.True(t, p.Images[0].IsPrimary)
	assert.Equal(t, []string{"bebidas"}, p.CategoryIDs)
}

func TestProductRepository_GetComposedVacioEsNil(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})

	p, err := supabase.NewProductRepository(c).GetComposed(context.Background(), "p1")

	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProductRepository_UpdateSinFilasEsNotFound(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.p1", r.URL.Query().Get("id"))
		writeJSON(w, http.StatusOK, []any{})
	})

	err := supabase.NewProductRepository(c).Update(context.Background(), &entity.Product{ID: "p1", Name: "X"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductImageRepository_InsertManyUnaLlamada(t *testing.T) {
	calls := 0
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))
		var rows []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rows))
		assert.Len(t, rows, 2)
		w.WriteHeader(http.StatusCreated)
	})

	err := supabase.NewProductImageRepository(c).InsertMany(context.Background(),
		entity.BuildImageSet("p1", []string{"https://x/a.jpg", "https://x/b.jpg"}))

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestStorage_PutBlobYPublicURL(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/storage/v1/object/productos/p1/image_0.jpg", r.URL.Path)
		assert.Equal(t, "true", r.Header.Get("x-upsert"))
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte{1, 2, 3}, raw)
		writeJSON(w, http.StatusOK, map[string]string{"Key": "productos/p1/image_0.jpg"})
	})
	s := supabase.NewStorage(c)

	require.NoError(t, s.PutBlob(context.Background(), "productos", "p1/image_0.jpg", []byte{1, 2, 3}, "image/png"))
	assert.Equal(t, c.BaseURL()+"/storage/v1/object/public/productos/p1/image_0.jpg", s.PublicURL("productos", "p1/image_0.jpg"))
}

func TestStorage_DeleteBlobs(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/storage/v1/object/productos", r.URL.Path)
		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"p1/image_0.jpg", "p1/image_1.jpg"}, body["prefixes"])
		writeJSON(w, http.StatusOK, []any{})
	})

	err := supabase.NewStorage(c).DeleteBlobs(context.Background(), "productos", []string{"p1/image_0.jpg", "p1/image_1.jpg"})

	require.NoError(t, err)
}

func TestIdentityFunction_CreateUser(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/functions/v1/create-user", r.URL.Path)
		assert.Equal(t, "Bearer caller", r.Header.Get("Authorization"), "se usa el token del llamador")
		var req ports.CreateUserRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, entity.RoleDelivery, req.Role)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"user":    map[string]any{"id": "u1", "email": req.Email, "nombre": req.Nombre, "role": req.Role, "activo": true},
		})
	})

	u, err := supabase.NewIdentityFunction(c).CreateUser(context.Background(), "caller", ports.CreateUserRequest{
		Email: "juan@colmado.do", Password: "secreto1", Nombre: "Juan", Role: entity.RoleDelivery,
	})

	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.True(t, u.Activo)
	assert.Empty(t, u.AvatarURL)
}

func TestIdentityFunction_EmailDuplicado(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusBadRequest} {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, status, map[string]any{"success": false, "error": "A user with this email address has already been registered"})
		})

		_, err := supabase.NewIdentityFunction(c).CreateUser(context.Background(), "caller", ports.CreateUserRequest{Email: "x@y.z"})

		assert.ErrorIs(t, err, domain.ErrDuplicate, "status %d", status)
	}
}

func TestIdentityFunction_SinToken(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no debe llamar al servicio")
	})

	_, err := supabase.NewIdentityFunction(c).CreateUser(context.Background(), "", ports.CreateUserRequest{})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestDeliveryViewRepository_Get(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/rest/v1/colmado_users", r.URL.Path)
		assert.Equal(t, "eq.u1", q.Get("user_id"))
		assert.Equal(t, "eq.c1", q.Get("colmado_id"))
		assert.Equal(t, "eq.delivery", q.Get("role_in_colmado"))
		writeJSON(w, http.StatusOK, []map[string]any{{
			"user_id": "u1", "colmado_id": "c1", "role_in_colmado": "delivery",
			"profiles": map[string]any{"id": "u1", "email": "juan@colmado.do", "nombre": "Juan", "activo": true, "avatar_url": nil},
		}})
	})

	u, err := supabase.NewDeliveryViewRepository(c).Get(context.Background(), "u1", "c1")

	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "juan@colmado.do", u.Email)
	assert.Equal(t, "c1", u.ColmadoID)
	assert.Empty(t, u.AvatarURL)
}

func TestDeliveryViewRepository_GetSinPerfilEsNil(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"user_id": "u1", "colmado_id": "c1", "role_in_colmado": "delivery", "profiles": nil}})
	})

	u, err := supabase.NewDeliveryViewRepository(c).Get(context.Background(), "u1", "c1")

	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestProfileRepository_UpdateEnviaSoloElPatch(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"activo": false}, body)
		writeJSON(w, http.StatusOK, []map[string]any{{"id": "u1"}})
	})
	off := false

	err := supabase.NewProfileRepository(c).Update(context.Background(), "u1", repository.ProfilePatch{Activo: &off})

	require.NoError(t, err)
}

func TestAssociationRepository_Get(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/rest/v1/colmado_users", r.URL.Path)
		assert.Equal(t, "eq.u1", q.Get("user_id"))
		assert.Equal(t, "eq.c1", q.Get("colmado_id"))
		writeJSON(w, http.StatusOK, []map[string]any{{"user_id": "u1", "colmado_id": "c1", "role_in_colmado": "owner"}})
	})

	a, err := supabase.NewAssociationRepository(c).Get(context.Background(), "u1", "c1")

	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, entity.RoleOwner, a.RoleInColmado)
}

func TestAssociationRepository_GetSinFilaEsNil(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{})
	})

	a, err := supabase.NewAssociationRepository(c).Get(context.Background(), "u2", "c1")

	require.NoError(t, err)
	assert.Nil(t, a)
}
