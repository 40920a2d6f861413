// Package models contains the GORM persistence models behind the registry
// tables. Domain entities carry no ORM tags; repositories convert between the
// two with ToDomain and FromDomain.
//
//   - base.go: identity, audit and version columns
//   - registry.go: persons and addresses
package models
