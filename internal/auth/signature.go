package auth

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/oops"

	"wallet_auth/internal/domain"
)

// DefaultLoginMessage is the challenge clients sign when no other is configured.
const DefaultLoginMessage = "Login to Lukman the defi"

// signatureLength is r (32) || s (32) || v (1).
const signatureLength = 65

// SignatureVerifier recovers the signing address of a personal_sign
// (EIP-191) signature over a fixed login message.
type SignatureVerifier struct {
	message string
	hash    []byte
}

// NewSignatureVerifier creates a verifier bound to message. An empty message
// falls back to DefaultLoginMessage.
func NewSignatureVerifier(message string) *SignatureVerifier {
	if message == "" {
		message = DefaultLoginMessage
	}
	return &SignatureVerifier{
		message: message,
		hash:    accounts.TextHash([]byte(message)),
	}
}

// Message returns the challenge clients are expected to sign.
func (v *SignatureVerifier) Message() string {
	return v.message
}

// Recover returns the address whose key produced signature over the login message.
func (v *SignatureVerifier) Recover(signature string) (common.Address, error) {
	sig, err := decodeSignature(signature)
	if err != nil {
		return common.Address{}, err
	}
	pub, err := crypto.SigToPub(v.hash, sig)
	if err != nil {
		return common.Address{}, oops.With("reason", err.Error()).Wrap(domain.ErrMalformedSignature)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify recovers the signer and compares it with claimed, ignoring case.
func (v *SignatureVerifier) Verify(claimed, signature string) (common.Address, error) {
	recovered, err := v.Recover(signature)
	if err != nil {
		return common.Address{}, err
	}
	if !SameAddress(recovered.Hex(), claimed) {
		return recovered, domain.ErrSignatureMismatch
	}
	return recovered, nil
}

func decodeSignature(signature string) ([]byte, error) {
	signature = strings.TrimSpace(signature)
	if !strings.HasPrefix(signature, "0x") && !strings.HasPrefix(signature, "0X") {
		signature = "0x" + signature
	}
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return nil, oops.With("reason", err.Error()).Wrap(domain.ErrMalformedSignature)
	}
	if len(sig) != signatureLength {
		return nil, oops.With("length", len(sig)).Wrap(domain.ErrMalformedSignature)
	}
	// Wallets emit v as 27/28; recovery expects 0/1.
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return nil, oops.With("v", sig[64]).Wrap(domain.ErrMalformedSignature)
	}
	return sig, nil
}

// SameAddress compares two hex addresses. Hex case carries no meaning
// beyond the optional EIP-55 checksum, so the comparison ignores it.
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// NormalizeAddress validates a hex wallet address and returns its canonical
// lower-case 0x form.
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return "", oops.With("address", address).Wrap(domain.ErrInvalidWalletAddress)
	}
	return strings.ToLower(common.HexToAddress(address).Hex()), nil
}
