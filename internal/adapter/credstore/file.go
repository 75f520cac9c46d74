package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/heartmarshall/examwatch/internal/domain"
)

const fileMode fs.FileMode = 0o600

// fileDocument is the on-disk layout: one token pair per profile.
type fileDocument struct {
	Profiles map[string]filePair `json:"profiles"`
}

type filePair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// File persists credentials in a JSON file. Writes go to a temp file in the
// same directory followed by a rename, so readers never observe a pair with
// only one token replaced. When a passphrase is set the document is sealed
// with XChaCha20-Poly1305 under an Argon2id-derived key.
type File struct {
	path       string
	profile    string
	passphrase []byte
	log        *slog.Logger
	mu         sync.Mutex
}

// NewFile creates a file-backed store. An empty passphrase stores plaintext JSON.
func NewFile(logger *slog.Logger, path, profile, passphrase string) *File {
	f := &File{
		path:    path,
		profile: profile,
		log:     logger.With("adapter", "credstore.file"),
	}
	if passphrase != "" {
		f.passphrase = []byte(passphrase)
	}
	return f
}

// Load returns the pair stored for the profile, or zero Credentials when the
// file or profile does not exist.
func (f *File) Load(ctx context.Context) (domain.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return domain.Credentials{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return domain.Credentials{}, err
	}

	pair := doc.Profiles[f.profile]
	return domain.Credentials{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// Save writes both tokens for the profile in one file replacement.
func (f *File) Save(ctx context.Context, creds domain.Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	doc.Profiles[f.profile] = filePair{AccessToken: creds.AccessToken, RefreshToken: creds.RefreshToken}

	if err := f.write(doc); err != nil {
		return err
	}

	f.log.DebugContext(ctx, "credentials saved", slog.String("profile", f.profile))
	return nil
}

// Clear removes the profile's pair. The file is deleted once no profile remains.
func (f *File) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Profiles[f.profile]; !ok {
		return nil
	}
	delete(doc.Profiles, f.profile)

	if len(doc.Profiles) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("credstore.Clear: remove %s: %w", f.path, err)
		}
		return nil
	}

	return f.write(doc)
}

func (f *File) read() (fileDocument, error) {
	doc := fileDocument{Profiles: make(map[string]filePair)}

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("credstore: read %s: %w", f.path, err)
	}

	if f.passphrase != nil {
		raw, err = open(f.passphrase, raw)
		if err != nil {
			return doc, fmt.Errorf("credstore: decrypt %s: %w", f.path, err)
		}
	}

	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("credstore: decode %s: %w", f.path, err)
	}
	if doc.Profiles == nil {
		doc.Profiles = make(map[string]filePair)
	}

	return doc, nil
}

func (f *File) write(doc fileDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("credstore: encode: %w", err)
	}

	if f.passphrase != nil {
		raw, err = seal(f.passphrase, raw)
		if err != nil {
			return fmt.Errorf("credstore: encrypt: %w", err)
		}
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("credstore: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("credstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("credstore: chmod: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("credstore: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("credstore: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("credstore: close: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("credstore: replace %s: %w", f.path, err)
	}
	return nil
}
