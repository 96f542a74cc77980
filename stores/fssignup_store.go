package stores

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	ca "github.com/Colin-Posat/cramingo-auth"
)

// FSSignupStore keeps staged signups as JSON files keyed by email.
type FSSignupStore struct {
	StoragePath string
}

func NewFSSignupStore(storagePath string) *FSSignupStore {
	return &FSSignupStore{StoragePath: storagePath}
}

func (s *FSSignupStore) signupPath(email string) string {
	return filepath.Join(s.StoragePath, "signups", emailKey(email)+".json")
}

func (s *FSSignupStore) GetStagedSignup(ctx context.Context, email string) (*ca.StagedSignup, error) {
	data, err := os.ReadFile(s.signupPath(email))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ca.ErrNotFound
		}
		return nil, err
	}
	var staged ca.StagedSignup
	if err := json.Unmarshal(data, &staged); err != nil {
		return nil, err
	}
	return &staged, nil
}

func (s *FSSignupStore) PutStagedSignup(ctx context.Context, staged *ca.StagedSignup) error {
	data, err := json.MarshalIndent(staged, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomicFile(s.signupPath(staged.Email), data)
}

func (s *FSSignupStore) DeleteStagedSignup(ctx context.Context, email string) error {
	err := os.Remove(s.signupPath(email))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *FSSignupStore) ListStagedSignups(ctx context.Context) ([]*ca.StagedSignup, error) {
	dir := filepath.Join(s.StoragePath, "signups")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []*ca.StagedSignup
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		var staged ca.StagedSignup
		if err := json.Unmarshal(data, &staged); err != nil {
			continue
		}
		out = append(out, &staged)
	}
	return out, nil
}
