package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sugarcrumb/storefront-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Role string

const (
	RoleGuest    Role = "guest"
	RoleCustomer Role = "customer"
)

// Session is the caller identity extracted from the bearer token.
type Session struct {
	Role   Role
	Email  string
	CartID uint
}

func (s Session) Authenticated() bool {
	return s.Role == RoleCustomer && s.Email != ""
}

// ZoneRef is a zone id that clients send either as a number or as a string.
type ZoneRef string

func (z *ZoneRef) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*z = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return err
		}
		*z = ZoneRef(strings.TrimSpace(s))
		return nil
	}
	*z = ZoneRef(raw)
	return nil
}

// ID coerces the reference to a zone id.
func (z ZoneRef) ID() (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(string(z)), 10, 64)
	if err != nil || n == 0 {
		return 0, invalid("zone", fmt.Sprintf("%q is not a valid zone id", string(z)))
	}
	return uint(n), nil
}

type GuestInfo struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	Address        string  `json:"address"`
	City           string  `json:"city"`
	Zone           ZoneRef `json:"zone"`
	AdditionalInfo *string `json:"additional_info,omitempty"`
}

type NewAddress struct {
	Street         string  `json:"street"`
	ZoneID         uint    `json:"zone_id"`
	AdditionalInfo *string `json:"additional_info,omitempty"`
	Save           bool    `json:"save"`
}

// AddressSelection picks a saved address or describes a new one. Guests use GuestInfo instead.
type AddressSelection struct {
	AddressID *uint       `json:"address_id,omitempty"`
	New       *NewAddress `json:"new_address,omitempty"`
}

// CustomerRef identifies the buyer. ID is zero for a guest that has no row yet;
// the row is created inside the commit transaction.
type CustomerRef struct {
	ID    uint                `json:"id,omitempty"`
	Name  string              `json:"name"`
	Email string              `json:"email"`
	Phone string              `json:"phone"`
	Type  models.CustomerType `json:"type"`
}

type DeliveryAddress struct {
	Street         string          `json:"street"`
	CityID         uint            `json:"city_id"`
	CityName       string          `json:"city"`
	ZoneID         uint            `json:"zone_id"`
	ZoneName       string          `json:"zone"`
	AdditionalInfo *string         `json:"additional_info,omitempty"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
	SavedAddressID *uint           `json:"saved_address_id,omitempty"`
	SaveToProfile  bool            `json:"-"`
}

// Resolution always carries both a customer and a delivery address.
type Resolution struct {
	Customer CustomerRef     `json:"customer"`
	Address  DeliveryAddress `json:"delivery_address"`
}

// Resolve determines who is buying and where the order goes. It reads only.
func Resolve(ctx context.Context, db *gorm.DB, session Session, guest *GuestInfo, sel AddressSelection) (Resolution, error) {
	db = db.WithContext(ctx)
	if session.Authenticated() {
		return resolveRegistered(db, session, sel)
	}
	return resolveGuest(db, guest)
}

func resolveRegistered(db *gorm.DB, session Session, sel AddressSelection) (Resolution, error) {
	email := models.NormalizeEmail(session.Email)

	var customer models.Customer
	err := db.Scopes(models.EmailEquals(email)).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Resolution{}, notFound(ErrCustomerNotFound, email)
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("load customer: %w", err)
	}
	ref := customerRef(customer)

	switch {
	case sel.AddressID != nil:
		var saved models.CustomerAddress
		err := db.Preload("City").Preload("Zone").
			Where("id = ? AND customer_id = ?", *sel.AddressID, customer.ID).
			First(&saved).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Resolution{}, notFound(ErrAddressNotFound, *sel.AddressID)
		}
		if err != nil {
			return Resolution{}, fmt.Errorf("load address: %w", err)
		}
		if saved.Zone.ID == 0 || !saved.Zone.IsActive {
			return Resolution{}, notFound(ErrZoneNotFound, saved.ZoneID)
		}
		id := saved.ID
		return Resolution{
			Customer: ref,
			Address: DeliveryAddress{
				Street:         saved.Street,
				CityID:         saved.CityID,
				CityName:       saved.City.Name,
				ZoneID:         saved.ZoneID,
				ZoneName:       saved.Zone.Name,
				AdditionalInfo: blankToNil(saved.AdditionalInfo),
				DeliveryFee:    saved.Zone.DeliveryFee,
				SavedAddressID: &id,
			},
		}, nil

	case sel.New != nil:
		if strings.TrimSpace(sel.New.Street) == "" {
			return Resolution{}, invalid("new_address.street", "is required")
		}
		if sel.New.ZoneID == 0 {
			return Resolution{}, invalid("new_address.zone_id", "is required")
		}
		zone, err := lookupZone(db, sel.New.ZoneID)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{
			Customer: ref,
			Address: DeliveryAddress{
				Street:         strings.TrimSpace(sel.New.Street),
				CityID:         zone.CityID,
				CityName:       zone.City.Name,
				ZoneID:         zone.ID,
				ZoneName:       zone.Name,
				AdditionalInfo: blankToNil(sel.New.AdditionalInfo),
				DeliveryFee:    zone.DeliveryFee,
				SaveToProfile:  sel.New.Save,
			},
		}, nil

	default:
		return Resolution{}, invalid("address", "an address_id or a new_address is required")
	}
}

func resolveGuest(db *gorm.DB, guest *GuestInfo) (Resolution, error) {
	if guest == nil {
		return Resolution{}, &ValidationError{Field: "guest", Reason: "guest details are required", Err: ErrMissingGuestData}
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", guest.Name},
		{"email", guest.Email},
		{"phone", guest.Phone},
		{"address", guest.Address},
		{"city", guest.City},
		{"zone", string(guest.Zone)},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return Resolution{}, &ValidationError{
			Field:  "guest",
			Reason: "missing " + strings.Join(missing, ", "),
			Err:    ErrMissingGuestData,
		}
	}

	email := models.NormalizeEmail(guest.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return Resolution{}, invalid("email", "is not a valid email address")
	}

	zoneID, err := guest.Zone.ID()
	if err != nil {
		return Resolution{}, err
	}
	zone, err := lookupZone(db, zoneID)
	if err != nil {
		return Resolution{}, err
	}
	if city := strings.TrimSpace(guest.City); !strings.EqualFold(city, zone.City.Name) {
		return Resolution{}, invalid("city", fmt.Sprintf("zone %q is not in %q", zone.Name, city))
	}

	ref := CustomerRef{
		Name:  strings.TrimSpace(guest.Name),
		Email: email,
		Phone: strings.TrimSpace(guest.Phone),
		Type:  models.CustomerTypeGuest,
	}
	var existing models.Customer
	err = db.Scopes(models.EmailEquals(email)).First(&existing).Error
	switch {
	case err == nil:
		ref = customerRef(existing)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return Resolution{}, fmt.Errorf("load customer: %w", err)
	}

	return Resolution{
		Customer: ref,
		Address: DeliveryAddress{
			Street:         strings.TrimSpace(guest.Address),
			CityID:         zone.CityID,
			CityName:       zone.City.Name,
			ZoneID:         zone.ID,
			ZoneName:       zone.Name,
			AdditionalInfo: blankToNil(guest.AdditionalInfo),
			DeliveryFee:    zone.DeliveryFee,
		},
	}, nil
}

func lookupZone(db *gorm.DB, id uint) (models.Zone, error) {
	var zone models.Zone
	err := db.Preload("City").Where("is_active = ?", true).First(&zone, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Zone{}, notFound(ErrZoneNotFound, id)
	}
	if err != nil {
		return models.Zone{}, fmt.Errorf("load zone %d: %w", id, err)
	}
	return zone, nil
}

// ensureCustomer returns the id of the customer for ref, inserting a guest row
// when no customer with that email exists. Safe against a concurrent insert of
// the same email.
func ensureCustomer(tx *gorm.DB, ref CustomerRef) (uint, error) {
	if ref.ID != 0 {
		return ref.ID, nil
	}
	email := models.NormalizeEmail(ref.Email)

	var existing models.Customer
	err := tx.Scopes(models.EmailEquals(email)).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("load customer: %w", err)
	}

	guest := models.Customer{
		Name:  ref.Name,
		Email: email,
		Phone: ref.Phone,
		Type:  models.CustomerTypeGuest,
	}
	// No conflict target: the case-folded email index must be covered too.
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&guest).Error; err != nil {
		return 0, fmt.Errorf("create guest customer: %w", err)
	}
	if guest.ID != 0 {
		return guest.ID, nil
	}

	if err := tx.Scopes(models.EmailEquals(email)).First(&existing).Error; err != nil {
		return 0, fmt.Errorf("reload customer: %w", err)
	}
	return existing.ID, nil
}

// saveAddress stores addr on the customer's profile unless an identical
// address (street, city, zone, additional info; nulls equal) already exists.
func saveAddress(tx *gorm.DB, customerID uint, addr DeliveryAddress) error {
	q := tx.Model(&models.CustomerAddress{}).
		Where("customer_id = ? AND street = ? AND city_id = ? AND zone_id = ?",
			customerID, addr.Street, addr.CityID, addr.ZoneID)
	if addr.AdditionalInfo == nil {
		q = q.Where("additional_info IS NULL")
	} else {
		q = q.Where("additional_info = ?", *addr.AdditionalInfo)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check saved addresses: %w", err)
	}
	if count > 0 {
		return nil
	}

	return tx.Create(&models.CustomerAddress{
		CustomerID:     customerID,
		Street:         addr.Street,
		CityID:         addr.CityID,
		ZoneID:         addr.ZoneID,
		AdditionalInfo: addr.AdditionalInfo,
	}).Error
}

func customerRef(c models.Customer) CustomerRef {
	return CustomerRef{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone, Type: c.Type}
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
