package model

// Indicator kinds.
const (
	IndicatorPrivateKey    = "private_key"
	IndicatorCryptoAddress = "crypto_address"
	IndicatorEmail         = "email"
	IndicatorOnionAddress  = "onion_address"
)

// IndicatorSourceMetadata is the Source of indicators found in image metadata.
const IndicatorSourceMetadata = "metadata"

// Indicator is a sensitive artifact found in extracted text, such as a key
// marker or a wallet address recovered from a payload.
type Indicator struct {
	// Kind groups indicators, e.g. IndicatorPrivateKey.
	Kind string `json:"kind"`

	// Name is the specific pattern, e.g. "openssh_private_key".
	Name string `json:"name"`

	// Value is the matched text. Key material is never included, only its marker.
	Value string `json:"value"`

	// Source is the detector name or IndicatorSourceMetadata.
	Source string `json:"source"`
}
