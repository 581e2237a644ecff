package models

import "encoding/json"

// Document is the logical form of a record: its store-assigned identifier and
// the entity JSON. Data never holds ciphertext.
type Document struct {
	ID   int64
	Data json.RawMessage
}

// StoredRecord is the at-rest representation of a collection row. It is
// either a PlainRecord or an EnvelopeRecord.
type StoredRecord interface {
	RecordID() int64
	storedRecord()
}

// PlainRecord holds entity JSON stored as-is.
type PlainRecord struct {
	ID   int64
	Data json.RawMessage
}

// EnvelopeRecord holds an encrypted entity; only a holder of the session key
// can recover the plaintext.
type EnvelopeRecord struct {
	ID         int64
	Ciphertext string
}

func (r PlainRecord) RecordID() int64    { return r.ID }
func (r EnvelopeRecord) RecordID() int64 { return r.ID }

func (PlainRecord) storedRecord()    {}
func (EnvelopeRecord) storedRecord() {}
