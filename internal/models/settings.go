package models

// EncryptionSettingName is the settings key of the encryption descriptor.
const EncryptionSettingName = "encryption"

// EncryptionDescriptor records that encryption is on and how to re-derive
// the session key. The key itself is never stored.
type EncryptionDescriptor struct {
	ID         string `json:"id"`
	Enabled    bool   `json:"enabled"`
	Salt       string `json:"salt"`
	Iterations uint32 `json:"iterations,omitempty"`
	// Verifier is a known token encrypted with the session key at setup.
	Verifier string `json:"verifier,omitempty"`
}

// VerifierPayload is the plaintext sealed into EncryptionDescriptor.Verifier.
type VerifierPayload struct {
	Purpose string `json:"purpose"`
	Nonce   string `json:"nonce"`
}

// VerifierPurpose tags verifier payloads so a foreign token is not accepted.
const VerifierPurpose = "timekeeper-verifier"
