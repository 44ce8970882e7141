package kernel

import (
	"errors"

	"storefront/internal/pkg/errs"
	"storefront/internal/pkg/guard"
)

// ErrAddressIsNotConstructed is returned when attempting to use an improperly initialized Address.
// Addresses must be created using the NewAddress constructor to ensure validity.
var ErrAddressIsNotConstructed = errs.NewValueIsRequiredError(
	"address must be created via NewAddress constructor")

// Address represents a postal address used for billing and shipping.
// Address is an immutable value object. Street1, city, postal code and
// country are mandatory; the rest is optional and carrier-dependent.
type Address struct {
	name       string
	street1    string
	street2    string
	city       string
	state      string
	postalCode string
	country    string
	phone      string
	email      string
	guard      guard.ConstructorGuard
}

// NewAddress creates a validated Address.
//
// Parameters:
//   - name: Recipient or company name (required)
//   - street1: Primary street line (required)
//   - street2: Secondary street line (optional)
//   - city: City name (required)
//   - state: State or province code (optional, some countries have none)
//   - postalCode: Postal or ZIP code (required)
//   - country: ISO 3166-1 alpha-2 country code (required)
//   - phone: Contact phone (optional)
//   - email: Contact email (optional)
//
// Returns:
//   - Address: A valid address instance
//   - error: Joined validation errors for every missing required field
func NewAddress(
	name, street1, street2, city, state, postalCode, country, phone, email string,
) (Address, error) {
	addr := Address{
		street2: street2,
		state:   state,
		phone:   phone,
		email:   email,
		guard:   guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		addr.setName(name),
		addr.setStreet1(street1),
		addr.setCity(city),
		addr.setPostalCode(postalCode),
		addr.setCountry(country),
	); err != nil {
		return Address{}, err
	}

	return addr, nil
}

// Name returns the recipient or company name.
func (a Address) Name() string { return a.name }

// Street1 returns the primary street line.
func (a Address) Street1() string { return a.street1 }

// Street2 returns the secondary street line, empty if unused.
func (a Address) Street2() string { return a.street2 }

// City returns the city name.
func (a Address) City() string { return a.city }

// State returns the state or province code, empty if unused.
func (a Address) State() string { return a.state }

// PostalCode returns the postal or ZIP code.
func (a Address) PostalCode() string { return a.postalCode }

// Country returns the ISO 3166-1 alpha-2 country code.
func (a Address) Country() string { return a.country }

// Phone returns the contact phone, empty if unused.
func (a Address) Phone() string { return a.phone }

// Email returns the contact email, empty if unused.
func (a Address) Email() string { return a.email }

// IsEqual compares two addresses field by field.
func (a Address) IsEqual(other Address) bool {
	return a.name == other.name &&
		a.street1 == other.street1 &&
		a.street2 == other.street2 &&
		a.city == other.city &&
		a.state == other.state &&
		a.postalCode == other.postalCode &&
		a.country == other.country &&
		a.phone == other.phone &&
		a.email == other.email
}

// Validate checks if the Address was properly constructed.
// Returns ErrAddressIsNotConstructed for zero-value instances.
func (a Address) Validate() error {
	return a.guard.Validate(ErrAddressIsNotConstructed)
}

func (a *Address) setName(name string) error {
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}
	a.name = name
	return nil
}

func (a *Address) setStreet1(street1 string) error {
	if street1 == "" {
		return errs.NewValueIsRequiredError("street1")
	}
	a.street1 = street1
	return nil
}

func (a *Address) setCity(city string) error {
	if city == "" {
		return errs.NewValueIsRequiredError("city")
	}
	a.city = city
	return nil
}

func (a *Address) setPostalCode(postalCode string) error {
	if postalCode == "" {
		return errs.NewValueIsRequiredError("postalCode")
	}
	a.postalCode = postalCode
	return nil
}

func (a *Address) setCountry(country string) error {
	if country == "" {
		return errs.NewValueIsRequiredError("country")
	}
	a.country = country
	return nil
}
