package hbnb

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Common errors
var (
	ErrNotFound     = errors.New("entity not found")
	ErrUnknownKind  = errors.New("unknown entity kind")
	ErrInvalidInput = errors.New("invalid input")
)

// ClassKey is the reserved field carrying the kind tag in serialized records.
const ClassKey = "__class__"

// Entity kinds.
const (
	KindBaseModel = "BaseModel"
	KindState     = "State"
	KindCity      = "City"
	KindUser      = "User"
	KindPlace     = "Place"
	KindReview    = "Review"
	KindAmenity   = "Amenity"
)

// Key returns the composite store key of an entity.
func Key(e Entity) string {
	return KeyFor(e.GetKind(), e.GetID())
}

// KeyFor returns the composite store key for kind and id.
func KeyFor(kind, id string) string {
	return kind + "." + id
}

// MatchesKind reports whether e belongs to kind. An empty kind and
// BaseModel match every entity, since every kind is a BaseModel.
func MatchesKind(e Entity, kind string) bool {
	if kind == "" || kind == KindBaseModel {
		return true
	}
	return e.GetKind() == kind
}

// BaseModel holds the fields common to every entity.
type BaseModel struct {
	ID        string    `json:"id"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`

	// Extra holds record fields the kind does not declare, and declared
	// fields whose stored value does not fit the Go type. ToMap writes them
	// back unchanged.
	Extra map[string]any `json:"-"`
}

// NewBaseModel returns a BaseModel with a fresh id and both timestamps set
// to now.
func NewBaseModel() BaseModel {
	now := Now()
	return BaseModel{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetKind implements Entity.
func (b *BaseModel) GetKind() string { return KindBaseModel }

// GetID implements Entity.
func (b *BaseModel) GetID() string { return b.ID }

// GetCreatedAt implements Entity.
func (b *BaseModel) GetCreatedAt() time.Time { return b.CreatedAt.Time }

// GetUpdatedAt implements Entity.
func (b *BaseModel) GetUpdatedAt() time.Time { return b.UpdatedAt.Time }

// ToMap implements Entity.
func (b *BaseModel) ToMap() (map[string]any, error) { return toMap(KindBaseModel, b) }

// Touch sets the update timestamp to now.
func (b *BaseModel) Touch() {
	b.UpdatedAt = Now()
}

// GetExtra returns the fields kept outside the declared ones.
func (b *BaseModel) GetExtra() map[string]any { return b.Extra }

func (b *BaseModel) base() *BaseModel { return b }

// ensureBase fills a missing id and missing timestamps.
func (b *BaseModel) ensureBase() {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = Now()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
}

// State is a geographic state.
type State struct {
	BaseModel
	Name string `json:"name"`
}

// NewState creates a State with a fresh id.
func NewState(name string) *State {
	return &State{BaseModel: NewBaseModel(), Name: name}
}

// GetKind implements Entity.
func (s *State) GetKind() string { return KindState }

// ToMap implements Entity.
func (s *State) ToMap() (map[string]any, error) { return toMap(KindState, s) }

// City belongs to a State.
type City struct {
	BaseModel
	StateID string `json:"state_id"`
	Name    string `json:"name"`
}

// NewCity creates a City in the given state.
func NewCity(stateID, name string) *City {
	return &City{BaseModel: NewBaseModel(), StateID: stateID, Name: name}
}

// GetKind implements Entity.
func (c *City) GetKind() string { return KindCity }

// ToMap implements Entity.
func (c *City) ToMap() (map[string]any, error) { return toMap(KindCity, c) }

// User is an account owning places and reviews.
type User struct {
	BaseModel
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// NewUser creates a User with a fresh id.
func NewUser(email string) *User {
	return &User{BaseModel: NewBaseModel(), Email: email}
}

// GetKind implements Entity.
func (u *User) GetKind() string { return KindUser }

// ToMap implements Entity.
func (u *User) ToMap() (map[string]any, error) { return toMap(KindUser, u) }

// SetPassword stores a bcrypt hash of password.
func (u *User) SetPassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password cannot be empty", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	if u.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// Place is a rentable listing in a City.
type Place struct {
	BaseModel
	CityID          string   `json:"city_id"`
	UserID          string   `json:"user_id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	NumberRooms     int      `json:"number_rooms"`
	NumberBathrooms int      `json:"number_bathrooms"`
	MaxGuest        int      `json:"max_guest"`
	PriceByNight    int      `json:"price_by_night"`
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
	AmenityIDs      []string `json:"amenity_ids"`
}

// NewPlace creates a Place owned by userID in cityID.
func NewPlace(cityID, userID, name string) *Place {
	return &Place{BaseModel: NewBaseModel(), CityID: cityID, UserID: userID, Name: name}
}

// GetKind implements Entity.
func (p *Place) GetKind() string { return KindPlace }

// ToMap implements Entity.
func (p *Place) ToMap() (map[string]any, error) { return toMap(KindPlace, p) }

// Review is a user's comment on a Place.
type Review struct {
	BaseModel
	PlaceID string `json:"place_id"`
	UserID  string `json:"user_id"`
	Text    string `json:"text"`
}

// NewReview creates a Review of placeID by userID.
func NewReview(placeID, userID, text string) *Review {
	return &Review{BaseModel: NewBaseModel(), PlaceID: placeID, UserID: userID, Text: text}
}

// GetKind implements Entity.
func (r *Review) GetKind() string { return KindReview }

// ToMap implements Entity.
func (r *Review) ToMap() (map[string]any, error) { return toMap(KindReview, r) }

// Amenity is a feature a Place can offer.
type Amenity struct {
	BaseModel
	Name string `json:"name"`
}

// NewAmenity creates an Amenity with a fresh id.
func NewAmenity(name string) *Amenity {
	return &Amenity{BaseModel: NewBaseModel(), Name: name}
}

// GetKind implements Entity.
func (a *Amenity) GetKind() string { return KindAmenity }

// ToMap implements Entity.
func (a *Amenity) ToMap() (map[string]any, error) { return toMap(KindAmenity, a) }

// toMap flattens v through its JSON form, overlays its extra fields and
// adds the kind tag.
func toMap(kind string, v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", kind, err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to flatten %s: %w", kind, err)
	}
	if b, ok := v.(interface{ base() *BaseModel }); ok {
		for name, value := range b.base().Extra {
			m[name] = value
		}
	}
	m[ClassKey] = kind
	return m, nil
}
