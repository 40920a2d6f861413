package models

import (
	"time"

	"github.com/attornatus/backend/internal/domain/registry"
	"github.com/google/uuid"
)

// PersonModel is the persistence model for the Person aggregate
type PersonModel struct {
	AggregateModel
	Name                 string         `gorm:"type:varchar(200);not null;index"`
	IdentificationNumber string         `gorm:"type:varchar(14);not null;uniqueIndex:idx_persons_identification_number"`
	BirthDate            time.Time      `gorm:"type:date;not null"`
	Addresses            []AddressModel `gorm:"foreignKey:PersonID"`
}

// TableName returns the table name for GORM
func (PersonModel) TableName() string {
	return "persons"
}

// ToDomain converts the persistence model to a domain Person.
// Addresses are included only when they were preloaded.
func (m *PersonModel) ToDomain() *registry.Person {
	p := &registry.Person{
		BaseAggregateRoot:    m.AggregateModel.ToDomainAggregateRoot(),
		Name:                 m.Name,
		IdentificationNumber: m.IdentificationNumber,
		BirthDate:            registry.DateOnly(m.BirthDate),
		Addresses:            make([]*registry.Address, 0, len(m.Addresses)),
	}
	for i := range m.Addresses {
		p.Addresses = append(p.Addresses, m.Addresses[i].ToDomain())
	}
	return p
}

// FromDomain populates the model from a domain Person, leaving Addresses empty.
// Addresses are written through their own repository.
func (m *PersonModel) FromDomain(p *registry.Person) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.IdentificationNumber = p.IdentificationNumber
	m.BirthDate = registry.DateOnly(p.BirthDate)
	m.Addresses = nil
}

// PersonModelFromDomain creates a new PersonModel from a domain Person
func PersonModelFromDomain(p *registry.Person) *PersonModel {
	m := &PersonModel{}
	m.FromDomain(p)
	return m
}

// AddressModel is the persistence model for Address
type AddressModel struct {
	BaseModel
	Street      string     `gorm:"type:varchar(255)"`
	PostalCode  string     `gorm:"type:varchar(9);not null"`
	HouseNumber int        `gorm:"not null"`
	City        string     `gorm:"type:varchar(120)"`
	IsMain      bool       `gorm:"not null;default:false"`
	PersonID    *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (AddressModel) TableName() string {
	return "addresses"
}

// ToDomain converts the persistence model to a domain Address
func (m *AddressModel) ToDomain() *registry.Address {
	return &registry.Address{
		BaseEntity:  m.BaseModel.ToDomain(),
		Street:      m.Street,
		PostalCode:  m.PostalCode,
		HouseNumber: m.HouseNumber,
		City:        m.City,
		IsMain:      m.IsMain,
		PersonID:    m.PersonID,
	}
}

// FromDomain populates the model from a domain Address
func (m *AddressModel) FromDomain(a *registry.Address) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Street = a.Street
	m.PostalCode = a.PostalCode
	m.HouseNumber = a.HouseNumber
	m.City = a.City
	m.IsMain = a.IsMain
	m.PersonID = a.PersonID
}

// AddressModelFromDomain creates a new AddressModel from a domain Address
func AddressModelFromDomain(a *registry.Address) *AddressModel {
	m := &AddressModel{}
	m.FromDomain(a)
	return m
}
