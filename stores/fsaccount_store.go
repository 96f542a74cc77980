package stores

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	ca "github.com/Colin-Posat/cramingo-auth"
)

// FSAccountStore keeps account documents as JSON files keyed by account id,
// with a by-email index directory for the secondary lookup.
type FSAccountStore struct {
	StoragePath string
}

func NewFSAccountStore(storagePath string) *FSAccountStore {
	return &FSAccountStore{StoragePath: storagePath}
}

func (s *FSAccountStore) accountPath(accountID string) string {
	return filepath.Join(s.StoragePath, "accounts", accountID+".json")
}

func (s *FSAccountStore) emailIndexPath(email string) string {
	return filepath.Join(s.StoragePath, "accounts_by_email", emailKey(email)+".json")
}

type emailIndexEntry struct {
	AccountID string `json:"account_id"`
}

func (s *FSAccountStore) GetAccount(ctx context.Context, accountID string) (*ca.UserAccount, error) {
	data, err := os.ReadFile(s.accountPath(accountID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ca.ErrNotFound
		}
		return nil, err
	}
	var account ca.UserAccount
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *FSAccountStore) GetAccountByEmail(ctx context.Context, email string) (*ca.UserAccount, error) {
	data, err := os.ReadFile(s.emailIndexPath(email))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ca.ErrNotFound
		}
		return nil, err
	}
	var entry emailIndexEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return s.GetAccount(ctx, entry.AccountID)
}

func (s *FSAccountStore) PutAccount(ctx context.Context, account *ca.UserAccount) error {
	data, err := json.MarshalIndent(account, "", "  ")
	if err != nil {
		return err
	}
	if err := writeAtomicFile(s.accountPath(account.AccountID), data); err != nil {
		return err
	}
	index, err := json.Marshal(emailIndexEntry{AccountID: account.AccountID})
	if err != nil {
		return err
	}
	return writeAtomicFile(s.emailIndexPath(account.Email), index)
}

func (s *FSAccountStore) UpdateLastLogin(ctx context.Context, accountID string, at time.Time) error {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	account.LastLoginAt = at
	data, err := json.MarshalIndent(account, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomicFile(s.accountPath(accountID), data)
}

func (s *FSAccountStore) ListAccounts(ctx context.Context) ([]*ca.UserAccount, error) {
	dir := filepath.Join(s.StoragePath, "accounts")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []*ca.UserAccount
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		var account ca.UserAccount
		if err := json.Unmarshal(data, &account); err != nil {
			continue
		}
		out = append(out, &account)
	}
	return out, nil
}
