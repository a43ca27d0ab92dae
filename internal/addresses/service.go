// Package addresses manages a user's shipping address book: the
// profile-derived default plus user-added entries, with exactly one
// selected for the next order.
package addresses

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
	"github.com/greenbasket/storefront/pkg/statestore"
	"github.com/greenbasket/storefront/pkg/types"
)

// Book is the persisted address book. The entry with ID 0 is the
// profile default and is refreshed by SyncProfileDefault.
type Book struct {
	Addresses  []types.Address `json:"addresses"`
	SelectedID int64           `json:"selected_id"`
	NextID     int64           `json:"next_id"`
}

// Selected returns the address currently chosen for orders.
func (b Book) Selected() (types.Address, bool) {
	for _, addr := range b.Addresses {
		if addr.ID == b.SelectedID {
			return addr, true
		}
	}
	return types.Address{}, false
}

type Service interface {
	List(ctx context.Context, userID string) (*Book, error)
	Add(ctx context.Context, userID string, addr types.Address) (*Book, error)
	Remove(ctx context.Context, userID string, addressID int64) (*Book, error)
	Select(ctx context.Context, userID string, addressID int64) (*Book, error)
	SyncProfileDefault(ctx context.Context, userID string, addr types.Address) (*Book, error)
}

type service struct {
	store    statestore.Store
	validate *validator.Validate
}

func NewService(store statestore.Store, validate *validator.Validate) (Service, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if validate == nil {
		validate = validator.New()
	}
	return &service{store: store, validate: validate}, nil
}

func (s *service) List(ctx context.Context, userID string) (*Book, error) {
	return s.load(ctx, userID)
}

// Add appends a user-added address and selects it.
func (s *service) Add(ctx context.Context, userID string, addr types.Address) (*Book, error) {
	if err := s.validate.Struct(addr); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "address is incomplete")
	}

	book, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if book.NextID == 0 {
		book.NextID = 1
	}
	addr.ID = book.NextID
	book.NextID++
	book.Addresses = append(book.Addresses, addr)
	book.SelectedID = addr.ID

	if err := s.save(ctx, userID, book); err != nil {
		return nil, err
	}
	return book, nil
}

// Remove deletes a user-added address. The profile default cannot be
// removed; removing the selected entry falls back to the default.
func (s *service) Remove(ctx context.Context, userID string, addressID int64) (*Book, error) {
	if addressID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "the profile default address cannot be removed")
	}

	book, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := book.Addresses[:0]
	found := false
	for _, addr := range book.Addresses {
		if addr.ID == addressID {
			found = true
			continue
		}
		kept = append(kept, addr)
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	book.Addresses = kept
	if book.SelectedID == addressID {
		book.SelectedID = 0
	}

	if err := s.save(ctx, userID, book); err != nil {
		return nil, err
	}
	return book, nil
}

// Select marks one address as the order destination.
func (s *service) Select(ctx context.Context, userID string, addressID int64) (*Book, error) {
	book, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	exists := false
	for _, addr := range book.Addresses {
		if addr.ID == addressID {
			exists = true
			break
		}
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}

	book.SelectedID = addressID
	if err := s.save(ctx, userID, book); err != nil {
		return nil, err
	}
	return book, nil
}

// SyncProfileDefault upserts the ID-0 entry from the user profile.
func (s *service) SyncProfileDefault(ctx context.Context, userID string, addr types.Address) (*Book, error) {
	if err := s.validate.Struct(addr); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "address is incomplete")
	}

	book, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	addr.ID = 0
	replaced := false
	for i := range book.Addresses {
		if book.Addresses[i].ID == 0 {
			book.Addresses[i] = addr
			replaced = true
			break
		}
	}
	if !replaced {
		book.Addresses = append([]types.Address{addr}, book.Addresses...)
	}

	if err := s.save(ctx, userID, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *service) load(ctx context.Context, userID string) (*Book, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user ID is required")
	}

	var book Book
	err := statestore.GetJSON(ctx, s.store, userID, statestore.FieldAddresses, &book)
	if err != nil && !errors.Is(err, statestore.ErrNotFound) {
		return nil, err
	}
	return &book, nil
}

func (s *service) save(ctx context.Context, userID string, book *Book) error {
	return statestore.SetJSON(ctx, s.store, userID, statestore.FieldAddresses, book)
}
