// Package memory implementa todos los puertos del backend en memoria: modo de desarrollo
// local (DATA_BACKEND=memory) y doble de pruebas. Permite simular vistas atrasadas e
// inyectar fallas por operación.
package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/colmado-api/internal/domain/entity"
)

// Operaciones sobre las que se pueden inyectar fallas y contar llamadas.
const (
	OpInsertProduct     = "insert_product"
	OpUpdateProduct     = "update_product"
	OpDeleteProduct     = "delete_product"
	OpGetProduct        = "get_product"
	OpInsertImages      = "insert_images"
	OpDeleteImages      = "delete_images"
	OpInsertCategories  = "insert_categories"
	OpDeleteCategories  = "delete_categories"
	OpPutBlob           = "put_blob"
	OpDeleteBlobs       = "delete_blobs"
	OpCreateUser        = "create_user"
	OpGetProfile        = "get_profile"
	OpUpdateProfile     = "update_profile"
	OpGetAssociation    = "get_association"
	OpInsertAssociation = "insert_association"
	OpDeleteAssociation = "delete_association"
	OpGetDelivery       = "get_delivery"
)

// ErrInjected error por defecto de FailOn.
var ErrInjected = errors.New("falla inyectada")

// Store estado compartido por todos los adaptadores en memoria.
type Store struct {
	mu sync.Mutex

	baseURL string
	now     func() time.Time

	products   map[string]entity.Product
	images     map[string][]entity.ProductImage
	categories map[string][]string
	profiles   map[string]entity.Profile
	passwords  map[string]string
	assocs     []entity.ColmadoAssociation
	blobs      map[string][]byte

	// lecturas compuestas que devuelven vacío después de cada escritura
	staleReads int
	hidden     map[string]int

	identityAvatar bool
	faults         map[string]error
	blobFaults     map[string]error
	calls          map[string]int
}

// NewStore crea un backend vacío. baseURL se usa para las URLs públicas de archivos.
func NewStore(baseURL string) *Store {
	return &Store{
		baseURL:        baseURL,
		now:            time.Now,
		products:       map[string]entity.Product{},
		images:         map[string][]entity.ProductImage{},
		categories:     map[string][]string{},
		profiles:       map[string]entity.Profile{},
		passwords:      map[string]string{},
		blobs:          map[string][]byte{},
		hidden:         map[string]int{},
		identityAvatar: true,
		faults:         map[string]error{},
		blobFaults:     map[string]error{},
		calls:          map[string]int{},
	}
}

// SetStaleReads hace que las próximas n lecturas de una vista compuesta tras cada escritura devuelvan vacío.
func (s *Store) SetStaleReads(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staleReads = n
}

// SetIdentityStoresAvatar controla si la función de alta guarda el avatar o lo ignora.
func (s *Store) SetIdentityStoresAvatar(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identityAvatar = v
}

// FailOn hace fallar todas las llamadas a op con err (ErrInjected si err es nil).
func (s *Store) FailOn(op string, err error) {
	if err == nil {
		err = ErrInjected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// FailBlob hace fallar la subida de una ruta concreta.
func (s *Store) FailBlob(bucket, path string, err error) {
	if err == nil {
		err = ErrInjected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobFaults[blobKey(bucket, path)] = err
}

// ClearFaults quita todas las fallas inyectadas.
func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = map[string]error{}
	s.blobFaults = map[string]error{}
}

// Calls cantidad de llamadas recibidas por op (incluidas las que fallaron).
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// HasBlob indica si existe el archivo.
func (s *Store) HasBlob(bucket, path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[blobKey(bucket, path)]
	return ok
}

// BlobCount cantidad total de archivos guardados.
func (s *Store) BlobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// ProductCount cantidad de filas raíz de productos.
func (s *Store) ProductCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.products)
}

// enter cuenta la llamada y devuelve la falla inyectada, si hay. Debe llamarse con mu tomado.
func (s *Store) enter(op string) error {
	s.calls[op]++
	return s.faults[op]
}

func newID() string {
	return uuid.NewString()
}

func (s *Store) markWritten(key string) {
	if s.staleReads > 0 {
		s.hidden[key] = s.staleReads
	}
}

// visible consume una lectura atrasada si corresponde.
func (s *Store) visible(key string) bool {
	if n := s.hidden[key]; n > 0 {
		s.hidden[key] = n - 1
		return false
	}
	return true
}

func productKey(id string) string { return "product:" + id }

func deliveryKey(userID, colmadoID string) string { return "delivery:" + userID + ":" + colmadoID }

func blobKey(bucket, path string) string { return bucket + "/" + path }
