package handler

import (
	"errors"
	"path"
	"strings"

	appregistry "github.com/attornatus/backend/internal/application/registry"
	"github.com/attornatus/backend/internal/domain/registry"
	"github.com/attornatus/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// PersonHandler handles person and address API endpoints
type PersonHandler struct {
	BaseHandler
	personService  *appregistry.PersonService
	addressService *appregistry.AddressService
}

// NewPersonHandler creates a new PersonHandler
func NewPersonHandler(personService *appregistry.PersonService, addressService *appregistry.AddressService) *PersonHandler {
	return &PersonHandler{
		personService:  personService,
		addressService: addressService,
	}
}

// RegisterPersonRequest represents a request to register a person with a first address
//
//	@Description	Request body for registering a person
type RegisterPersonRequest struct {
	Name                 string `json:"name" example:"Fulano de Tal"`
	IdentificationNumber string `json:"identification_number" example:"486.031.170-12"`
	BirthDate            string `json:"birth_date" example:"1998-11-25"`
	PostalCode           string `json:"postal_code" example:"69098384"`
	HouseNumber          *int   `json:"house_number" example:"123"`
}

func (r RegisterPersonRequest) toInput() registry.RegistrationInput {
	return registry.RegistrationInput{
		PersonInput: registry.PersonInput{
			Name:                 strings.TrimSpace(r.Name),
			IdentificationNumber: strings.TrimSpace(r.IdentificationNumber),
			BirthDate:            strings.TrimSpace(r.BirthDate),
		},
		AddressInput: registry.AddressInput{
			PostalCode:  r.PostalCode,
			HouseNumber: r.HouseNumber,
		},
	}
}

// UpdatePersonRequest represents a request to update a person. Omitted or
// blank fields keep their stored value.
//
//	@Description	Request body for updating a person
type UpdatePersonRequest struct {
	Name      *string `json:"name" example:"Fulano da Silva"`
	BirthDate *string `json:"birth_date" example:"1998-11-26"`
}

func (r UpdatePersonRequest) toInput() registry.UpdateInput {
	return registry.UpdateInput{
		Name:      blankToNil(r.Name),
		BirthDate: blankToNil(r.BirthDate),
	}
}

// AddAddressRequest represents a request to add an address to a person
//
//	@Description	Request body for adding an address
type AddAddressRequest struct {
	PostalCode  string `json:"postal_code" example:"01001-000"`
	HouseNumber *int   `json:"house_number" example:"45"`
}

// SearchPersonsRequest holds the query parameters of a name search
type SearchPersonsRequest struct {
	Name string `form:"name" example:"fulano"`
	dto.ListRequest
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// Register godoc
// @ID           registerPerson
//
//	@Summary		Register a person
//	@Description	Register a person with a first address resolved from its postal code. The address becomes the main address.
//	@Tags			persons
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterPersonRequest	true	"Person registration request"
//	@Success		201		{object}	APIResponse[appregistry.PersonResponse]
//	@Header			201		{string}	Location	"URL of the new person"
//	@Failure		400		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/persons [post]
func (h *PersonHandler) Register(c *gin.Context) {
	var req RegisterPersonRequest
	if !h.bindJSON(c, &req) {
		return
	}

	in := req.toInput()
	if err := registry.ValidateRegistration(in); err != nil {
		h.HandleError(c, err)
		return
	}

	ctx := c.Request.Context()
	// a taken CPF must not cost a postal lookup or an address row
	if err := h.personService.EnsureUnregistered(ctx, in.IdentificationNumber); err != nil {
		h.HandleError(c, err)
		return
	}

	address, err := h.addressService.Resolve(ctx, in.PostalCode, in.HouseNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	person, err := h.personService.Register(ctx, in.PersonInput, address)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, strings.TrimSuffix(c.Request.URL.Path, "/")+"/"+person.ID.String(), appregistry.ToPersonResponse(person))
}

// GetByID godoc
// @ID           getPerson
//
//	@Summary		Get a person
//	@Description	Get a person and their addresses, main address first
//	@Tags			persons
//	@Produce		json
//	@Param			id	path		string	true	"Person ID"	format(uuid)
//	@Success		200	{object}	APIResponse[appregistry.PersonResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/persons/{id} [get]
func (h *PersonHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	person, err := h.personService.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, appregistry.ToPersonResponse(person))
}

// Update godoc
// @ID           updatePerson
//
//	@Summary		Update a person
//	@Description	Update name and birth date. The CPF never changes; omitted or blank fields are kept.
//	@Tags			persons
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Person ID"	format(uuid)
//	@Param			request	body		UpdatePersonRequest	true	"Person update request"
//	@Success		200		{object}	APIResponse[appregistry.PersonResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/persons/{id} [put]
func (h *PersonHandler) Update(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdatePersonRequest
	if !h.bindJSON(c, &req) {
		return
	}
	in := req.toInput()
	if err := registry.ValidateUpdate(in); err != nil {
		h.HandleError(c, err)
		return
	}

	ctx := c.Request.Context()
	person, err := h.personService.FindByID(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	person, err = h.personService.Update(ctx, person, in.Patch())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, appregistry.ToPersonResponse(person))
}

// Search godoc
// @ID           searchPersons
//
//	@Summary		Search persons by name
//	@Description	Case-insensitive substring search on the name. An empty name lists everybody.
//	@Tags			persons
//	@Produce		json
//	@Param			name		query		string	false	"Name fragment"
//	@Param			page		query		int		false	"Page number"	default(1)	minimum(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	minimum(1)	maximum(100)
//	@Param			order_by	query		string	false	"Sort field"	Enums(name, birth_date, created_at, updated_at)	default(name)
//	@Param			order_dir	query		string	false	"Sort order"	Enums(asc, desc)	default(asc)
//	@Success		200			{object}	APIResponse[[]appregistry.PersonListResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/persons [get]
func (h *PersonHandler) Search(c *gin.Context) {
	var req SearchPersonsRequest
	if !h.bindQuery(c, &req) {
		return
	}

	page, err := h.personService.FindByName(c.Request.Context(), req.Name, req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Page(c, dto.NewPageResponse(page, appregistry.ToPersonListResponse))
}

// AddAddress godoc
// @ID           addPersonAddress
//
//	@Summary		Add an address
//	@Description	Resolve the postal code and add the address to the person. The new address is not main.
//	@Tags			addresses
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Person ID"	format(uuid)
//	@Param			request	body		AddAddressRequest	true	"Address request"
//	@Success		201		{object}	APIResponse[appregistry.PersonResponse]
//	@Header			201		{string}	Location	"URL of the person"
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/persons/{id}/addresses [post]
func (h *PersonHandler) AddAddress(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req AddAddressRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	person, err := h.personService.FindByID(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	address, err := h.addressService.Resolve(ctx, req.PostalCode, req.HouseNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	person, err = h.personService.AddAddress(ctx, person, address)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	// the created address is reached through its person
	h.Created(c, path.Dir(strings.TrimSuffix(c.Request.URL.Path, "/")), appregistry.ToPersonResponse(person))
}

// ListAddresses godoc
// @ID           listPersonAddresses
//
//	@Summary		List addresses
//	@Description	List the person's addresses, main address first unless an order is given
//	@Tags			addresses
//	@Produce		json
//	@Param			id			path		string	true	"Person ID"	format(uuid)
//	@Param			page		query		int		false	"Page number"	default(1)	minimum(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	minimum(1)	maximum(100)
//	@Param			order_by	query		string	false	"Sort field"	Enums(city, street, postal_code, created_at, updated_at)
//	@Param			order_dir	query		string	false	"Sort order"	Enums(asc, desc)
//	@Success		200			{object}	APIResponse[[]appregistry.AddressResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/persons/{id}/addresses [get]
func (h *PersonHandler) ListAddresses(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}

	ctx := c.Request.Context()
	person, err := h.personService.FindByID(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, err := h.addressService.ListForPerson(ctx, person, req.ToFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Page(c, dto.NewPageResponse(page, appregistry.ToAddressListResponse))
}

// SetMainAddress godoc
// @ID           setPersonMainAddress
//
//	@Summary		Set the main address
//	@Description	Make one of the person's addresses the main one. Every other address is demoted.
//	@Tags			addresses
//	@Produce		json
//	@Param			id			path		string	true	"Person ID"		format(uuid)
//	@Param			addressId	path		string	true	"Address ID"	format(uuid)
//	@Success		200			{object}	APIResponse[appregistry.PersonResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/persons/{id}/addresses/{addressId}/main [patch]
func (h *PersonHandler) SetMainAddress(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	addressID, ok := h.parseUUIDParam(c, "addressId")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	person, err := h.personService.FindByID(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	address, err := h.addressService.FindByID(ctx, addressID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	person, err = h.personService.SetAddressAsMain(ctx, person, address)
	if err != nil {
		if errors.Is(err, registry.ErrAddressNotOwned) {
			h.Error(c, dto.GetHTTPStatus(dto.ErrCodeAddressNotOwned), dto.ErrCodeAddressNotOwned,
				"Address "+addressID.String()+" does not belong to person "+id.String())
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, appregistry.ToPersonResponse(person))
}
