package domain

// Credential is a proof of identity presented at login: either a
// PasswordCredential or a WalletCredential.
type Credential interface {
	credential()
}

// PasswordCredential is a username/password pair.
type PasswordCredential struct {
	Username string
	Password string
}

// WalletCredential is a wallet address plus a signature over the fixed login message.
type WalletCredential struct {
	Address   string
	Signature string
}

func (PasswordCredential) credential() {}
func (WalletCredential) credential()   {}
