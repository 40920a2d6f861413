package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	appregistry "github.com/attornatus/backend/internal/application/registry"
	"github.com/attornatus/backend/internal/domain/registry"
	"github.com/attornatus/backend/internal/infrastructure/persistence"
	"github.com/attornatus/backend/internal/infrastructure/persistence/models"
	"github.com/attornatus/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stubLookup resolves postal codes from a fixed table
type stubLookup struct {
	mu      sync.Mutex
	entries map[string]registry.PostalAddress
	err     error
	calls   int
}

func (s *stubLookup) Lookup(_ context.Context, postalCode string) (registry.PostalAddress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return registry.PostalAddress{}, s.err
	}
	addr, ok := s.entries[postalCode]
	if !ok {
		return registry.PostalAddress{}, registry.ErrPostalCodeNotFound
	}
	return addr, nil
}

type personAPI struct {
	router *gin.Engine
	db     *gorm.DB
	lookup *stubLookup
}

func newPersonAPI(t *testing.T) *personAPI {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), persistence.GormConfig(logger.Default.LogMode(logger.Silent)))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.PersonModel{}, &models.AddressModel{}))

	lookup := &stubLookup{entries: map[string]registry.PostalAddress{
		"69098384": {Street: "Rua Hortelã-do-Campo", City: "Manaus", PostalCode: "69098384"},
		"01001000": {Street: "Praça da Sé", City: "São Paulo", PostalCode: "01001000"},
	}}

	personRepo := persistence.NewGormPersonRepository(db)
	addressRepo := persistence.NewGormAddressRepository(db)
	personService := appregistry.NewPersonService(personRepo, persistence.NewGormTransactionScope(db), nil)
	addressService := appregistry.NewAddressService(addressRepo, lookup, nil)
	h := NewPersonHandler(personService, addressService)

	RegisterBindingTagNames()
	r := gin.New()
	persons := r.Group("/api/v1/persons")
	persons.POST("", h.Register)
	persons.GET("", h.Search)
	persons.GET("/:id", h.GetByID)
	persons.PUT("/:id", h.Update)
	persons.POST("/:id/addresses", h.AddAddress)
	persons.GET("/:id/addresses", h.ListAddresses)
	persons.PATCH("/:id/addresses/:addressId/main", h.SetMainAddress)

	return &personAPI{router: r, db: db, lookup: lookup}
}

func (a *personAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *personAPI) register(t *testing.T, body map[string]any) appregistry.PersonResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/persons", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var person appregistry.PersonResponse
	decodeData(t, w, &person)
	return person
}

func (a *personAPI) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, a.db.Model(model).Count(&n).Error)
	return n
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var env struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
	return env.Response
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func fulano() map[string]any {
	return map[string]any{
		"name":                  "Fulano",
		"identification_number": "486.031.170-12",
		"birth_date":            "1998-11-25",
		"postal_code":           "69098384",
		"house_number":          123,
	}
}

func TestPersonHandler_Register(t *testing.T) {
	t.Run("registers with a main address", func(t *testing.T) {
		api := newPersonAPI(t)

		w := api.do(t, http.MethodPost, "/api/v1/persons", fulano())
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var person appregistry.PersonResponse
		decodeData(t, w, &person)
		assert.Equal(t, "/api/v1/persons/"+person.ID.String(), w.Header().Get("Location"))
		assert.Equal(t, "Fulano", person.Name)
		assert.Equal(t, "486.031.170-12", person.IdentificationNumber)
		assert.Equal(t, "1998-11-25", person.BirthDate)
		require.Len(t, person.Addresses, 1)
		assert.True(t, person.Addresses[0].IsMain)
		assert.Equal(t, "Rua Hortelã-do-Campo", person.Addresses[0].Street)
		assert.Equal(t, "Manaus", person.Addresses[0].City)
		assert.Equal(t, 123, person.Addresses[0].HouseNumber)
	})

	t.Run("duplicate CPF writes nothing", func(t *testing.T) {
		api := newPersonAPI(t)
		api.register(t, fulano())
		lookups := api.lookup.calls

		body := fulano()
		body["identification_number"] = "48603117012"
		w := api.do(t, http.MethodPost, "/api/v1/persons", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeDuplicateIdentification, decodeError(t, w).Code)
		assert.Equal(t, lookups, api.lookup.calls, "no postal lookup for a taken CPF")
		assert.Equal(t, int64(1), api.count(t, &models.PersonModel{}))
		assert.Equal(t, int64(1), api.count(t, &models.AddressModel{}))
	})

	t.Run("reports every invalid field", func(t *testing.T) {
		api := newPersonAPI(t)

		w := api.do(t, http.MethodPost, "/api/v1/persons", map[string]any{
			"name":                  "",
			"identification_number": "123.456.789-00",
			"birth_date":            "2999-01-01",
			"postal_code":           "123",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		errInfo := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeValidation, errInfo.Code)
		fields := make([]string, 0, len(errInfo.Details))
		for _, d := range errInfo.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"name", "identification_number", "birth_date", "postal_code", "house_number"}, fields)
		assert.Len(t, errInfo.Errors, 5)
		assert.Zero(t, api.lookup.calls)
	})

	t.Run("unknown postal code is a validation error", func(t *testing.T) {
		api := newPersonAPI(t)
		body := fulano()
		body["postal_code"] = "99999-999"

		w := api.do(t, http.MethodPost, "/api/v1/persons", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		errInfo := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeValidation, errInfo.Code)
		require.Len(t, errInfo.Details, 1)
		assert.Equal(t, "postal_code", errInfo.Details[0].Field)
		assert.Zero(t, api.count(t, &models.PersonModel{}))
	})

	t.Run("lookup outage is a bad gateway", func(t *testing.T) {
		api := newPersonAPI(t)
		api.lookup.err = fmt.Errorf("viacep: %w", registry.ErrPostalLookupUnavailable)

		w := api.do(t, http.MethodPost, "/api/v1/persons", fulano())

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, dto.ErrCodePostalLookup, decodeError(t, w).Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		api := newPersonAPI(t)

		w := api.do(t, http.MethodPost, "/api/v1/persons", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, decodeError(t, w).Code)

		w = api.do(t, http.MethodPost, "/api/v1/persons", `{"house_number":"twelve"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		errInfo := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeValidation, errInfo.Code)
		assert.Equal(t, "house_number", errInfo.Details[0].Field)
	})
}

func TestPersonHandler_GetByID(t *testing.T) {
	api := newPersonAPI(t)
	created := api.register(t, fulano())

	w := api.do(t, http.MethodGet, "/api/v1/persons/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var person appregistry.PersonResponse
	decodeData(t, w, &person)
	assert.Equal(t, created.ID, person.ID)
	require.Len(t, person.Addresses, 1)

	t.Run("absent person", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/persons/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decodeError(t, w).Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/persons/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		errInfo := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeValidation, errInfo.Code)
		assert.Equal(t, "id", errInfo.Details[0].Field)
	})
}

func TestPersonHandler_Update(t *testing.T) {
	api := newPersonAPI(t)
	created := api.register(t, fulano())
	path := "/api/v1/persons/" + created.ID.String()

	t.Run("blank name keeps the stored name", func(t *testing.T) {
		w := api.do(t, http.MethodPut, path, map[string]any{
			"name":                  "  ",
			"birth_date":            "1998-11-26",
			"identification_number": "529.982.247-25",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var person appregistry.PersonResponse
		decodeData(t, w, &person)
		assert.Equal(t, "Fulano", person.Name)
		assert.Equal(t, "1998-11-26", person.BirthDate)
		assert.Equal(t, "486.031.170-12", person.IdentificationNumber)
		assert.Equal(t, created.Version+1, person.Version)
	})

	t.Run("new name", func(t *testing.T) {
		w := api.do(t, http.MethodPut, path, map[string]any{"name": "Fulano da Silva"})
		require.Equal(t, http.StatusOK, w.Code)

		var person appregistry.PersonResponse
		decodeData(t, w, &person)
		assert.Equal(t, "Fulano da Silva", person.Name)
		assert.Equal(t, "1998-11-26", person.BirthDate)
	})

	t.Run("future birth date", func(t *testing.T) {
		w := api.do(t, http.MethodPut, path, map[string]any{"birth_date": "2999-01-01"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeError(t, w).Code)
	})

	t.Run("absent person", func(t *testing.T) {
		w := api.do(t, http.MethodPut, "/api/v1/persons/"+uuid.NewString(), map[string]any{"name": "X"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPersonHandler_Search(t *testing.T) {
	api := newPersonAPI(t)
	for i, p := range []struct{ name, cpf string }{
		{"Maria Souza", "486.031.170-12"},
		{"Mariana Lima", "529.982.247-25"},
		{"João Pereira", "111.444.777-35"},
	} {
		body := fulano()
		body["name"] = p.name
		body["identification_number"] = p.cpf
		body["house_number"] = i + 1
		api.register(t, body)
	}

	t.Run("case-insensitive name fragment", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/persons?name=MARIA", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var persons []appregistry.PersonListResponse
		resp := decodeData(t, w, &persons)
		require.Len(t, persons, 2)
		assert.Equal(t, "Maria Souza", persons[0].Name)
		assert.Equal(t, "Mariana Lima", persons[1].Name)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(2), resp.Meta.Total)
		assert.Equal(t, 1, resp.Meta.TotalPages)
	})

	t.Run("paging and order", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/persons?page=2&page_size=2&order_by=name&order_dir=desc", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var persons []appregistry.PersonListResponse
		resp := decodeData(t, w, &persons)
		require.Len(t, persons, 1)
		assert.Equal(t, "João Pereira", persons[0].Name)
		assert.Equal(t, int64(3), resp.Meta.Total)
		assert.Equal(t, 2, resp.Meta.Page)
		assert.Equal(t, 2, resp.Meta.TotalPages)
	})

	t.Run("bad paging params", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/persons?page=0&page_size=500&order_dir=up", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		errInfo := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeValidation, errInfo.Code)
		fields := make([]string, 0, len(errInfo.Details))
		for _, d := range errInfo.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"page", "page_size", "order_dir"}, fields)

		w = api.do(t, http.MethodGet, "/api/v1/persons?page=abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPersonHandler_Addresses(t *testing.T) {
	api := newPersonAPI(t)
	created := api.register(t, fulano())
	base := "/api/v1/persons/" + created.ID.String() + "/addresses"
	mainID := created.Addresses[0].ID

	w := api.do(t, http.MethodPost, base, map[string]any{"postal_code": "01001-000", "house_number": 45})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/api/v1/persons/"+created.ID.String(), w.Header().Get("Location"))
	var person appregistry.PersonResponse
	decodeData(t, w, &person)
	require.Len(t, person.Addresses, 2)
	assert.Equal(t, mainID, person.Addresses[0].ID, "main address first")
	assert.True(t, person.Addresses[0].IsMain)
	assert.False(t, person.Addresses[1].IsMain)
	secondID := person.Addresses[1].ID
	assert.Equal(t, int64(2), api.count(t, &models.AddressModel{}), "each address stored once")

	t.Run("list main first", func(t *testing.T) {
		w := api.do(t, http.MethodGet, base+"?page_size=10", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var addresses []appregistry.AddressResponse
		resp := decodeData(t, w, &addresses)
		require.Len(t, addresses, 2)
		assert.Equal(t, mainID, addresses[0].ID)
		assert.Equal(t, "Praça da Sé", addresses[1].Street)
		assert.Equal(t, int64(2), resp.Meta.Total)
		assert.NotContains(t, w.Body.String(), "person_id")
	})

	t.Run("set main", func(t *testing.T) {
		w := api.do(t, http.MethodPatch, base+"/"+secondID.String()+"/main", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var person appregistry.PersonResponse
		decodeData(t, w, &person)
		mains := 0
		for _, a := range person.Addresses {
			if a.IsMain {
				mains++
				assert.Equal(t, secondID, a.ID)
			}
		}
		assert.Equal(t, 1, mains)

		var stored int64
		require.NoError(t, api.db.Model(&models.AddressModel{}).Where("is_main = ?", true).Count(&stored).Error)
		assert.Equal(t, int64(1), stored)
	})

	t.Run("address of another person", func(t *testing.T) {
		other := fulano()
		other["identification_number"] = "529.982.247-25"
		stranger := api.register(t, other)

		w := api.do(t, http.MethodPatch, base+"/"+stranger.Addresses[0].ID.String()+"/main", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeAddressNotOwned, decodeError(t, w).Code)
	})

	t.Run("absent address", func(t *testing.T) {
		w := api.do(t, http.MethodPatch, base+"/"+uuid.NewString()+"/main", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("absent person", func(t *testing.T) {
		missing := "/api/v1/persons/" + uuid.NewString() + "/addresses"
		before := api.count(t, &models.AddressModel{})

		w := api.do(t, http.MethodPost, missing, map[string]any{"postal_code": "01001000", "house_number": 1})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, before, api.count(t, &models.AddressModel{}))

		w = api.do(t, http.MethodGet, missing, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid address input", func(t *testing.T) {
		w := api.do(t, http.MethodPost, base, map[string]any{"postal_code": "", "house_number": 0})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		errInfo := decodeError(t, w)
		assert.Len(t, errInfo.Details, 2)
		assert.True(t, strings.Contains(strings.Join(errInfo.Errors, "|"), "Zipcode must not be empty"))
	})
}
