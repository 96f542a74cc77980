//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	ca "github.com/Colin-Posat/cramingo-auth"
)

// ============================================================================
// SignupStore
// ============================================================================

// SignupStore implements ca.SignupStore using Google Cloud Datastore.
type SignupStore struct {
	client    *datastore.Client
	namespace string
}

// NewSignupStore creates a Datastore-backed SignupStore.
func NewSignupStore(client *datastore.Client, namespace string) *SignupStore {
	return &SignupStore{client: client, namespace: namespace}
}

func (s *SignupStore) key(email string) *datastore.Key {
	key := datastore.NameKey(KindStagedSignup, strings.ToLower(email), nil)
	key.Namespace = s.namespace
	return key
}

func (s *SignupStore) GetStagedSignup(ctx context.Context, email string) (*ca.StagedSignup, error) {
	var entity StagedSignupEntity
	if err := s.client.Get(ctx, s.key(email), &entity); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, ca.ErrNotFound
		}
		return nil, err
	}
	return entity.ToStagedSignup(), nil
}

func (s *SignupStore) PutStagedSignup(ctx context.Context, staged *ca.StagedSignup) error {
	key := s.key(staged.Email)
	entity := &StagedSignupEntity{
		Key:       key,
		Email:     staged.Email,
		Password:  staged.Password,
		Username:  staged.Username,
		CreatedAt: staged.CreatedAt,
	}
	_, err := s.client.Put(ctx, key, entity)
	return err
}

func (s *SignupStore) DeleteStagedSignup(ctx context.Context, email string) error {
	err := s.client.Delete(ctx, s.key(email))
	if err == datastore.ErrNoSuchEntity {
		return nil
	}
	return err
}

func (s *SignupStore) ListStagedSignups(ctx context.Context) ([]*ca.StagedSignup, error) {
	query := datastore.NewQuery(KindStagedSignup)
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}

	var out []*ca.StagedSignup
	it := s.client.Run(ctx, query)
	for {
		var entity StagedSignupEntity
		_, err := it.Next(&entity)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, entity.ToStagedSignup())
	}
	return out, nil
}

// ============================================================================
// AccountStore
// ============================================================================

// AccountStore implements ca.AccountStore using Google Cloud Datastore.
type AccountStore struct {
	client    *datastore.Client
	namespace string
}

// NewAccountStore creates a Datastore-backed AccountStore.
func NewAccountStore(client *datastore.Client, namespace string) *AccountStore {
	return &AccountStore{client: client, namespace: namespace}
}

func (s *AccountStore) key(accountID string) *datastore.Key {
	key := datastore.NameKey(KindUserAccount, accountID, nil)
	key.Namespace = s.namespace
	return key
}

func (s *AccountStore) GetAccount(ctx context.Context, accountID string) (*ca.UserAccount, error) {
	var entity UserAccountEntity
	if err := s.client.Get(ctx, s.key(accountID), &entity); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, ca.ErrNotFound
		}
		return nil, err
	}
	return entity.ToUserAccount(), nil
}

func (s *AccountStore) GetAccountByEmail(ctx context.Context, email string) (*ca.UserAccount, error) {
	query := datastore.NewQuery(KindUserAccount).
		FilterField("email", "=", strings.ToLower(email)).
		Limit(1)
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}

	it := s.client.Run(ctx, query)
	var entity UserAccountEntity
	_, err := it.Next(&entity)
	if err == iterator.Done {
		return nil, ca.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entity.ToUserAccount(), nil
}

func (s *AccountStore) PutAccount(ctx context.Context, account *ca.UserAccount) error {
	key := s.key(account.AccountID)
	_, err := s.client.Put(ctx, key, AccountToEntity(account, key))
	return err
}

func (s *AccountStore) UpdateLastLogin(ctx context.Context, accountID string, at time.Time) error {
	key := s.key(accountID)
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var entity UserAccountEntity
		if err := tx.Get(key, &entity); err != nil {
			if err == datastore.ErrNoSuchEntity {
				return ca.ErrNotFound
			}
			return err
		}
		entity.LastLoginAt = at
		_, err := tx.Put(key, &entity)
		return err
	})
	return err
}

func (s *AccountStore) ListAccounts(ctx context.Context) ([]*ca.UserAccount, error) {
	query := datastore.NewQuery(KindUserAccount)
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}

	var out []*ca.UserAccount
	it := s.client.Run(ctx, query)
	for {
		var entity UserAccountEntity
		_, err := it.Next(&entity)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, entity.ToUserAccount())
	}
	return out, nil
}
