package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/colmado-api/internal/application/catalog"
	"github.com/jhoicas/colmado-api/internal/application/consistency"
	"github.com/jhoicas/colmado-api/internal/application/delivery"
	"github.com/jhoicas/colmado-api/internal/application/dto"
	"github.com/jhoicas/colmado-api/internal/application/ports"
	"github.com/jhoicas/colmado-api/internal/domain/entity"
	"github.com/jhoicas/colmado-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/colmado-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/colmado-api/pkg/jwt"
)

type form struct {
	fields map[string][]string
	files  map[string]int // campo → cantidad de archivos
}

func (f form) encode(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, values := range f.fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	for field, n := range f.files {
		for i := 0; i < n; i++ {
			h := textproto.MIMEHeader{}
			h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="img.jpg"`)
			h.Set("Content-Type", "image/jpeg")
			part, err := w.CreatePart(h)
			require.NoError(t, err)
			_, err = part.Write([]byte{0xFF, 0xD8, byte(i)})
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func newAPI(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.NewStore("https://demo.supabase.co")
	poller := consistency.Poller{MaxAttempts: 2, Delay: time.Millisecond}
	products := catalog.NewProductBuilder(
		store.Products(), store.ProductImages(), store.ProductCategories(), store.Blobs(), nil,
		catalog.ProductBuilderConfig{Bucket: "productos", Poller: poller, UploadConcurrency: 2},
	)
	deliveries := delivery.NewDeliveryBuilder(
		store.Identity(), store.Profiles(), store.Associations(), store.DeliveryView(), store.Blobs(), nil,
		delivery.DeliveryBuilderConfig{AvatarBucket: memory.AvatarBucket, Poller: poller},
	)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Products:   products,
		Deliveries: deliveries,
		JWTSecret:  testJWTSecret,
		AppName:    "colmado-api",
	})
	return app, store
}

func send(t *testing.T, app *fiber.App, method, path, role string, f *form) *http.Response {
	t.Helper()
	if role == "" {
		return sendAs(t, app, method, path, "", f)
	}
	return sendAs(t, app, method, path, tokenForRole(t, role), f)
}

// sendAs igual que send pero con el header Authorization ya armado.
func sendAs(t *testing.T, app *fiber.App, method, path, auth string, f *form) *http.Response {
	t.Helper()
	var req *http.Request
	if f != nil {
		body, ct := f.encode(t)
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", ct)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func cocaColaForm() *form {
	return &form{
		fields: map[string][]string{
			"name":         {"Coca Cola"},
			"price":        {"25.0"},
			"stock":        {"10"},
			"category_ids": {"bebidas"},
		},
		files: map[string]int{"images": 1},
	}
}

func TestHealth(t *testing.T) {
	app, _ := newAPI(t)
	resp := send(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProductos_CrearLeerEliminar(t *testing.T) {
	app, store := newAPI(t)

	resp := send(t, app, http.MethodPost, "/api/products", "owner", cocaColaForm())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.ProductResponse](t, resp)
	assert.Equal(t, testColmadoID, created.ColmadoID, "el colmado sale del token")
	require.Len(t, created.Images, 1)
	assert.True(t, created.Images[0].IsPrimary)
	assert.Equal(t, []string{"bebidas"}, created.CategoryIDs)

	resp = send(t, app, http.MethodGet, "/api/products/"+created.ID, "delivery", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[dto.ProductResponse](t, resp)
	assert.Equal(t, "Coca Cola", got.Name)

	resp = send(t, app, http.MethodDelete, "/api/products/"+created.ID, "owner", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Zero(t, store.ProductCount())

	resp = send(t, app, http.MethodGet, "/api/products/"+created.ID, "owner", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductos_SinImagenesEs400(t *testing.T) {
	app, store := newAPI(t)
	f := cocaColaForm()
	f.files = nil

	resp := send(t, app, http.MethodPost, "/api/products", "owner", f)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Contains(t, body.Message, "entre 1 y 5 imágenes")
	assert.Zero(t, store.Calls(memory.OpInsertProduct))
}

func TestProductos_RepartidorNoPuedeCrear(t *testing.T) {
	app, _ := newAPI(t)

	resp := send(t, app, http.MethodPost, "/api/products", "delivery", cocaColaForm())

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestProductos_FallaDeCategoriasNoExponeErrorCrudo(t *testing.T) {
	app, store := newAPI(t)
	store.FailOn(memory.OpInsertCategories, nil)

	resp := send(t, app, http.MethodPost, "/api/products", "owner", cocaColaForm())

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "CATEGORY_ASSIGNMENT_FAILED", body.Code)
	assert.NotContains(t, body.Message, memory.ErrInjected.Error())
	assert.Zero(t, store.ProductCount())
}

func TestProductos_Actualizar(t *testing.T) {
	app, _ := newAPI(t)
	resp := send(t, app, http.MethodPost, "/api/products", "owner", cocaColaForm())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.ProductResponse](t, resp)

	resp = send(t, app, http.MethodPut, "/api/products/"+created.ID, "owner", &form{
		fields: map[string][]string{
			"name":            {"Coca Cola Zero"},
			"price":           {"30"},
			"stock":           {"4"},
			"is_active":       {"false"},
			"category_ids":    {"bebidas,light"},
			"kept_image_urls": {created.Images[0].URL},
		},
		files: map[string]int{"images": 1},
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[dto.ProductResponse](t, resp)
	assert.Equal(t, "Coca Cola Zero", updated.Name)
	assert.False(t, updated.IsActive)
	assert.Equal(t, []string{"bebidas", "light"}, updated.CategoryIDs)
	require.Len(t, updated.Images, 2)
	assert.Equal(t, created.Images[0].URL, updated.Images[0].URL)
}

func TestProductos_SinToken(t *testing.T) {
	app, _ := newAPI(t)
	resp := send(t, app, http.MethodGet, "/api/products/x", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func deliveriesPath() string { return "/api/colmados/" + testColmadoID + "/deliveries" }

func TestRepartidores_Ciclo(t *testing.T) {
	app, store := newAPI(t)

	resp := send(t, app, http.MethodPost, deliveriesPath(), "owner", &form{
		fields: map[string][]string{"email": {"juan@colmado.do"}, "password": {"secreto1"}, "nombre": {"Juan"}},
		files:  map[string]int{"avatar": 1},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.DeliveryResponse](t, resp)
	assert.Equal(t, testColmadoID, created.ColmadoID)
	assert.Equal(t, "delivery", created.RoleInColmado)
	assert.NotEmpty(t, created.AvatarURL)

	resp = send(t, app, http.MethodPost, deliveriesPath()+"/"+created.ID+"/disable", "owner", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[dto.DeliveryResponse](t, resp).Activo)

	resp = send(t, app, http.MethodPatch, deliveriesPath()+"/"+created.ID, "owner", &form{
		fields: map[string][]string{"nombre": {"Juan Pablo"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Juan Pablo", decode[dto.DeliveryResponse](t, resp).Nombre)

	resp = send(t, app, http.MethodGet, deliveriesPath(), "owner", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[dto.DeliveryListResponse](t, resp).Items, 1)

	resp = send(t, app, http.MethodDelete, deliveriesPath()+"/"+created.ID, "owner", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1, store.Calls(memory.OpDeleteAssociation))
}

func TestRepartidores_EmailDuplicadoEs409(t *testing.T) {
	app, _ := newAPI(t)
	f := &form{fields: map[string][]string{"email": {"juan@colmado.do"}, "password": {"secreto1"}, "nombre": {"Juan"}}}

	resp := send(t, app, http.MethodPost, deliveriesPath(), "owner", f)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = send(t, app, http.MethodPost, deliveriesPath(), "owner", f)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRepartidores_EmailInvalidoEs400(t *testing.T) {
	app, store := newAPI(t)

	resp := send(t, app, http.MethodPost, deliveriesPath(), "owner", &form{
		fields: map[string][]string{"email": {"no-es-email"}, "password": {"secreto1"}, "nombre": {"Juan"}},
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, store.Calls(memory.OpCreateUser))
}

func TestRepartidores_OtroColmadoEs403(t *testing.T) {
	app, _ := newAPI(t)

	resp := send(t, app, http.MethodGet, "/api/colmados/otro/deliveries", "owner", nil)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRepartidores_AsociacionFallidaEs422(t *testing.T) {
	app, store := newAPI(t)
	store.FailOn(memory.OpInsertAssociation, nil)

	resp := send(t, app, http.MethodPost, deliveriesPath(), "owner", &form{
		fields: map[string][]string{"email": {"juan@colmado.do"}, "password": {"secreto1"}, "nombre": {"Juan"}},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "ASSOCIATION_FAILED", decode[dto.ErrorResponse](t, resp).Code)
}

func ownerOf(t *testing.T, colmadoID string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, pkgjwt.Identity{
		UserID:    "00000000-0000-0000-0000-000000000009",
		Email:     "otro@colmado.do",
		ColmadoID: colmadoID,
		Rol:       entity.RoleOwner,
	}, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestProductos_OtroColmadoNoPuedeLeerModificarNiEliminar(t *testing.T) {
	app, store := newAPI(t)
	resp := send(t, app, http.MethodPost, "/api/products", "owner", cocaColaForm())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.ProductResponse](t, resp)
	intruso := ownerOf(t, "colmado-otro")

	resp = sendAs(t, app, http.MethodGet, "/api/products/"+created.ID, intruso, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = sendAs(t, app, http.MethodPut, "/api/products/"+created.ID, intruso, &form{
		fields: map[string][]string{
			"name":            {"Robado"},
			"price":           {"1"},
			"category_ids":    {"otra"},
			"kept_image_urls": {created.Images[0].URL},
		},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Zero(t, store.Calls(memory.OpUpdateProduct))

	resp = sendAs(t, app, http.MethodDelete, "/api/products/"+created.ID, intruso, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 1, store.ProductCount())

	resp = send(t, app, http.MethodGet, "/api/products/"+created.ID, "owner", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Coca Cola", decode[dto.ProductResponse](t, resp).Name)
}

func TestProductos_SinColmadoEnElTokenNoUsaElFormulario(t *testing.T) {
	app, store := newAPI(t)
	f := cocaColaForm()
	f.fields["colmado_id"] = []string{testColmadoID}

	resp := sendAs(t, app, http.MethodPost, "/api/products", ownerOf(t, ""), f)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, store.Calls(memory.OpInsertProduct))
}

func TestRepartidores_NoSeTocaUnUsuarioDeOtroColmado(t *testing.T) {
	app, store := newAPI(t)
	ajeno, err := store.Identity().CreateUser(context.Background(), "tok", ports.CreateUserRequest{
		Email: "ajeno@colmado.do", Password: "secreto1", Nombre: "Ajeno", Role: entity.RoleDelivery,
	})
	require.NoError(t, err)
	require.NoError(t, store.Associations().Insert(context.Background(), entity.ColmadoAssociation{
		UserID: ajeno.ID, ColmadoID: "colmado-otro", RoleInColmado: entity.RoleDelivery,
	}))

	for _, path := range []string{"/disable", "/enable"} {
		resp := send(t, app, http.MethodPost, deliveriesPath()+"/"+ajeno.ID+path, "owner", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
	resp := send(t, app, http.MethodPatch, deliveriesPath()+"/"+ajeno.ID, "owner", &form{
		fields: map[string][]string{"nombre": {"Cambiado"}},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = send(t, app, http.MethodDelete, deliveriesPath()+"/"+ajeno.ID, "owner", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.Zero(t, store.Calls(memory.OpUpdateProfile))
	p, err := store.Profiles().GetByID(context.Background(), ajeno.ID)
	require.NoError(t, err)
	assert.True(t, p.Activo)
	assert.Equal(t, "Ajeno", p.Nombre)
}
