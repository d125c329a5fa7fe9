package datasite

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PermissionFile is the name of the access policy file attached to each
// managed folder.
const PermissionFile = "_.syftperm"

// Permission is the access policy persisted alongside a managed folder.
type Permission struct {
	Admin []string `json:"admin"`
	Read  []string `json:"read"`
	Write []string `json:"write"`
}

// DefaultPermission returns the owner-only policy: the owner administers,
// reads and writes, nobody else has access.
func DefaultPermission(owner string) Permission {
	return Permission{
		Admin: []string{owner},
		Read:  []string{owner},
		Write: []string{owner},
	}
}

// Save writes the policy file into dir.
func (p Permission) Save(dir string) error {
	data, err := json.MarshalIndent(p, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal permission: %w", err)
	}

	path := filepath.Join(dir, PermissionFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write permission file %s: %w", path, err)
	}

	return nil
}

// Storage manages the permission-scoped output folders under a datasite root.
type Storage struct {
	root  string
	owner string
}

// NewStorage creates a storage manager for the datasite rooted at root and
// owned by the given identity.
func NewStorage(root, owner string) *Storage {
	return &Storage{root: root, owner: owner}
}

// EnsurePublicFolder creates app_pipelines/cpu_tracker under the root and
// attaches the default policy extended with the given reader identities
// (typically the aggregator). It returns the folder path.
func (s *Storage) EnsurePublicFolder(readers []string) (string, error) {
	dir := filepath.Join(s.root, "app_pipelines", "cpu_tracker")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create public folder: %w", err)
	}

	perm := DefaultPermission(s.owner)
	perm.Read = append(perm.Read, readers...)
	if err := perm.Save(dir); err != nil {
		return "", err
	}

	return dir, nil
}

// EnsurePrivateFolder creates private/cpu_tracker under the root with the
// owner-only policy and returns the folder path.
func (s *Storage) EnsurePrivateFolder() (string, error) {
	dir := filepath.Join(s.root, "private", "cpu_tracker")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create private folder: %w", err)
	}

	if err := DefaultPermission(s.owner).Save(dir); err != nil {
		return "", err
	}

	return dir, nil
}
