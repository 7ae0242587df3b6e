package domain

// Algorithm represents the AEAD algorithm used to encrypt card fields.
//
// Both algorithms take a 256-bit key, a 12-byte nonce and append a 16-byte
// authentication tag. The algorithm is recorded next to every stored value so a
// configuration change never makes older rows unreadable.
type Algorithm string

const (
	// AESGCM represents AES-256-GCM. Preferred on CPUs with AES-NI.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents ChaCha20-Poly1305. Preferred where AES has no hardware support.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// KeySize is the required length in bytes of every field and index key.
const KeySize = 32

// ParseAlgorithm converts a configuration value into an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch alg := Algorithm(s); alg {
	case AESGCM, ChaCha20:
		return alg, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}
