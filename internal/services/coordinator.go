// Package services contains the application services of timekeeper.
//
// The Coordinator sits between callers and the record store: it decides per
// write whether a record is stored plain or sealed, unwraps sealed records on
// read, and owns the encryption lifecycle (enable, unlock, lock, disable).
// The typed entity services (activities, categories, tags) are built on it.
package services

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/timekeeper/internal/common"
	"github.com/dmitrijs2005/timekeeper/internal/cryptox"
	"github.com/dmitrijs2005/timekeeper/internal/logging"
	"github.com/dmitrijs2005/timekeeper/internal/models"
	"github.com/dmitrijs2005/timekeeper/internal/repositories/records"
	"github.com/dmitrijs2005/timekeeper/internal/repositories/settings"
)

// Mode is the encryption state of a Coordinator.
type Mode int

const (
	// ModePlaintext: no descriptor, records are written plain.
	ModePlaintext Mode = iota
	// ModeLocked: a descriptor exists but no session key is held. Collection
	// access is refused until VerifyPassword succeeds.
	ModeLocked
	// ModeEncrypted: descriptor and session key present, writes are sealed.
	ModeEncrypted
)

func (m Mode) String() string {
	switch m {
	case ModePlaintext:
		return "plaintext"
	case ModeLocked:
		return "locked"
	case ModeEncrypted:
		return "encrypted"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Coordinator is the single entry point for collection access. It is safe
// for concurrent use.
type Coordinator struct {
	records    records.Repository
	settings   settings.Repository
	iterations uint32
	log        logging.Logger

	mu         sync.RWMutex
	descriptor *models.EncryptionDescriptor
	key        []byte
}

// NewCoordinator builds a Coordinator in plaintext mode. Call Load to pick up
// an existing encryption descriptor. iterations is the KDF time cost used by
// EnableEncryption; zero selects cryptox.DefaultIterations.
func NewCoordinator(recs records.Repository, st settings.Repository, iterations uint32, log logging.Logger) *Coordinator {
	if iterations == 0 {
		iterations = cryptox.DefaultIterations
	}
	return &Coordinator{
		records:    recs,
		settings:   st,
		iterations: iterations,
		log:        log,
	}
}

// Load reads the encryption descriptor. When one exists the Coordinator
// becomes locked; any session key held before is dropped.
func (c *Coordinator) Load(ctx context.Context) error {
	d, err := c.readDescriptor(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.wipeKey()
	c.descriptor = d
	if d != nil {
		c.log.Info(ctx, "encryption enabled, password required")
	}
	return nil
}

// Mode reports the current encryption state.
func (c *Coordinator) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode()
}

func (c *Coordinator) mode() Mode {
	switch {
	case c.descriptor == nil:
		return ModePlaintext
	case c.key == nil:
		return ModeLocked
	default:
		return ModeEncrypted
	}
}

// EnableEncryption derives a session key from password, persists the
// descriptor (salt, iterations, verifier) and seals every plain record.
//
// It refuses with common.ErrAlreadyEncrypted when a descriptor exists, locked
// or not: re-keying would strand records sealed under the previous key.
func (c *Coordinator) EnableEncryption(ctx context.Context, password []byte) (SweepReport, error) {
	if len(password) == 0 {
		return SweepReport{}, fmt.Errorf("%w: password must not be empty", common.ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.descriptor != nil {
		return SweepReport{}, common.ErrAlreadyEncrypted
	}
	existing, err := c.readDescriptor(ctx)
	if err != nil {
		return SweepReport{}, err
	}
	if existing != nil {
		c.descriptor = existing
		return SweepReport{}, common.ErrAlreadyEncrypted
	}

	salt, err := cryptox.GenerateSalt()
	if err != nil {
		return SweepReport{}, err
	}
	key, err := deriveKey(password, salt, c.iterations)
	if err != nil {
		return SweepReport{}, err
	}

	verifier, err := cryptox.Encrypt(models.VerifierPayload{
		Purpose: models.VerifierPurpose,
		Nonce:   uuid.NewString(),
	}, key)
	if err != nil {
		common.WipeByteArray(key)
		return SweepReport{}, fmt.Errorf("seal verifier: %w", err)
	}

	d := &models.EncryptionDescriptor{
		ID:         models.EncryptionSettingName,
		Enabled:    true,
		Salt:       salt,
		Iterations: c.iterations,
		Verifier:   verifier,
	}
	if err := c.writeDescriptor(ctx, d); err != nil {
		common.WipeByteArray(key)
		return SweepReport{}, err
	}

	c.descriptor = d
	c.key = key
	c.log.Info(ctx, "encryption enabled", "iterations", c.iterations)

	return c.sweep(ctx, sweepEncrypt)
}

// DisableEncryption unseals every record and removes the descriptor.
//
// In plaintext mode it does nothing. When locked it fails with
// common.ErrNotAuthenticated. If any record cannot be unsealed the
// descriptor and session key are kept, so the remaining envelopes stay
// readable, and common.ErrSweepIncomplete is returned with the report.
func (c *Coordinator) DisableEncryption(ctx context.Context) (SweepReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode() {
	case ModePlaintext:
		return SweepReport{}, nil
	case ModeLocked:
		return SweepReport{}, common.ErrNotAuthenticated
	}

	report, err := c.sweep(ctx, sweepDecrypt)
	if err != nil {
		return report, err
	}
	if n := report.FailedCount(); n > 0 {
		return report, fmt.Errorf("%w: %d record(s) could not be decrypted", common.ErrSweepIncomplete, n)
	}

	if err := c.settings.Delete(ctx, models.EncryptionSettingName); err != nil {
		return report, err
	}
	c.descriptor = nil
	c.wipeKey()
	c.log.Info(ctx, "encryption disabled")
	return report, nil
}

// VerifyPassword checks password against the stored descriptor and, on
// success, installs the derived session key.
//
// The check opens the descriptor's verifier. Descriptors written without a
// verifier fall back to opening the first sealed record found; if there is
// none the password is accepted. A wrong password returns false and leaves
// the Coordinator as it was. Without a descriptor it returns false.
func (c *Coordinator) VerifyPassword(ctx context.Context, password []byte) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.descriptor
	if d == nil {
		var err error
		if d, err = c.readDescriptor(ctx); err != nil {
			return false, err
		}
		if d == nil {
			return false, nil
		}
		c.descriptor = d
	}

	iterations := d.Iterations
	if iterations == 0 {
		iterations = cryptox.DefaultIterations
	}
	candidate, err := deriveKey(password, d.Salt, iterations)
	if err != nil {
		return false, err
	}

	ok, err := c.checkKey(ctx, d, candidate)
	if err != nil || !ok {
		common.WipeByteArray(candidate)
		if err == nil {
			c.log.Warn(ctx, "password verification failed")
		}
		return false, err
	}

	c.wipeKey()
	c.key = candidate
	return true, nil
}

func (c *Coordinator) checkKey(ctx context.Context, d *models.EncryptionDescriptor, key []byte) (bool, error) {
	if d.Verifier != "" {
		var p models.VerifierPayload
		if err := cryptox.Decrypt(d.Verifier, key, &p); err != nil {
			return false, nil
		}
		return p.Purpose == models.VerifierPurpose, nil
	}

	for _, col := range models.AllCollections {
		recs, err := c.records.GetAll(ctx, col)
		if err != nil {
			return false, err
		}
		for _, rec := range recs {
			env, ok := rec.(models.EnvelopeRecord)
			if !ok {
				continue
			}
			var probe json.RawMessage
			return cryptox.Decrypt(env.Ciphertext, key, &probe) == nil, nil
		}
	}
	return true, nil
}

// Lock drops the session key. The descriptor stays, so collection access is
// refused until the next successful VerifyPassword.
func (c *Coordinator) Lock() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wipeKey()
}

func (c *Coordinator) wipeKey() {
	if c.key != nil {
		common.WipeByteArray(c.key)
		c.key = nil
	}
}

func deriveKey(password []byte, saltHex string, iterations uint32) ([]byte, error) {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed salt: %w", common.ErrStoreRead, err)
	}
	return cryptox.DeriveKey(password, salt, iterations, cryptox.DefaultKeyBits)
}

func (c *Coordinator) readDescriptor(ctx context.Context) (*models.EncryptionDescriptor, error) {
	raw, err := c.settings.Get(ctx, models.EncryptionSettingName)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var d models.EncryptionDescriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: malformed encryption descriptor: %w", common.ErrStoreRead, err)
	}
	if !d.Enabled {
		return nil, nil
	}
	return &d, nil
}

func (c *Coordinator) writeDescriptor(ctx context.Context, d *models.EncryptionDescriptor) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreWrite, err)
	}
	return c.settings.Set(ctx, models.EncryptionSettingName, b)
}

// seal turns logical JSON into the record variant the current mode requires.
// Callers hold c.mu.
func (c *Coordinator) seal(id int64, data json.RawMessage) (models.StoredRecord, error) {
	if c.key == nil {
		return models.PlainRecord{ID: id, Data: data}, nil
	}
	token, err := cryptox.Encrypt(data, c.key)
	if err != nil {
		return nil, fmt.Errorf("seal record: %w", err)
	}
	return models.EnvelopeRecord{ID: id, Ciphertext: token}, nil
}

// open recovers the logical document of rec. Callers hold c.mu.
func (c *Coordinator) open(rec models.StoredRecord) (models.Document, error) {
	switch r := rec.(type) {
	case models.PlainRecord:
		return models.Document{ID: r.ID, Data: r.Data}, nil
	case models.EnvelopeRecord:
		if c.key == nil {
			return models.Document{}, fmt.Errorf("%w: no session key", cryptox.ErrDecryption)
		}
		var data json.RawMessage
		if err := cryptox.Decrypt(r.Ciphertext, c.key, &data); err != nil {
			return models.Document{}, err
		}
		return models.Document{ID: r.ID, Data: data}, nil
	}
	return models.Document{}, fmt.Errorf("unknown record variant %T", rec)
}

// readable guards collection access. Callers hold c.mu.
func (c *Coordinator) readable() error {
	if c.mode() == ModeLocked {
		return common.ErrNotAuthenticated
	}
	return nil
}

func validJSON(data json.RawMessage) error {
	if !json.Valid(data) {
		return fmt.Errorf("%w: record data is not valid JSON", common.ErrValidation)
	}
	return nil
}

// Add stores data as a new record and returns its identifier.
func (c *Coordinator) Add(ctx context.Context, col models.Collection, data json.RawMessage) (int64, error) {
	if err := validJSON(data); err != nil {
		return 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.readable(); err != nil {
		return 0, err
	}
	rec, err := c.seal(0, data)
	if err != nil {
		return 0, err
	}
	return c.records.Add(ctx, col, rec)
}

// Get returns the logical record with id, or nil if there is none. A sealed
// record that cannot be opened is logged and reported as absent.
func (c *Coordinator) Get(ctx context.Context, col models.Collection, id int64) (*models.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.readable(); err != nil {
		return nil, err
	}
	rec, err := c.records.Get(ctx, col, id)
	if err != nil || rec == nil {
		return nil, err
	}
	doc, err := c.open(rec)
	if err != nil {
		c.log.Warn(ctx, "record could not be decrypted", "collection", col, "id", id, "error", err)
		return nil, nil
	}
	return &doc, nil
}

// GetAll returns every readable record of col. Records that cannot be opened
// are logged and skipped.
func (c *Coordinator) GetAll(ctx context.Context, col models.Collection) ([]models.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.readable(); err != nil {
		return nil, err
	}
	return c.getAll(ctx, col)
}

func (c *Coordinator) getAll(ctx context.Context, col models.Collection) ([]models.Document, error) {
	recs, err := c.records.GetAll(ctx, col)
	if err != nil {
		return nil, err
	}

	docs := make([]models.Document, 0, len(recs))
	for _, rec := range recs {
		doc, err := c.open(rec)
		if err != nil {
			c.log.Warn(ctx, "skipping record that could not be decrypted", "collection", col, "id", rec.RecordID(), "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Update replaces the record with id by data, creating it if absent.
func (c *Coordinator) Update(ctx context.Context, col models.Collection, id int64, data json.RawMessage) error {
	if err := validJSON(data); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.readable(); err != nil {
		return err
	}
	rec, err := c.seal(id, data)
	if err != nil {
		return err
	}
	return c.records.Update(ctx, col, id, rec)
}

// Delete removes the record with id. Missing records are not an error.
func (c *Coordinator) Delete(ctx context.Context, col models.Collection, id int64) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.readable(); err != nil {
		return err
	}
	return c.records.Delete(ctx, col, id)
}

// Clear removes every record of the given collections.
func (c *Coordinator) Clear(ctx context.Context, cols ...models.Collection) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.readable(); err != nil {
		return err
	}
	return c.records.Clear(ctx, cols...)
}

// QueryByField returns the readable records of col whose top-level JSON
// field equals value. Equality is on the JSON encoding, so 2 matches 2.0 and
// a time.Time matches its RFC 3339 string.
func (c *Coordinator) QueryByField(ctx context.Context, col models.Collection, field string, value any) ([]models.Document, error) {
	want, err := canonicalJSON(value)
	if err != nil {
		return nil, fmt.Errorf("%w: query value: %w", common.ErrValidation, err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.readable(); err != nil {
		return nil, err
	}
	docs, err := c.getAll(ctx, col)
	if err != nil {
		return nil, err
	}

	matched := make([]models.Document, 0)
	for _, doc := range docs {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(doc.Data, &fields); err != nil {
			continue
		}
		raw, ok := fields[field]
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		got, err := canonicalJSON(v)
		if err == nil && got == want {
			matched = append(matched, doc)
		}
	}
	return matched, nil
}

func canonicalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return "", err
	}
	b, err = json.Marshal(generic)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
