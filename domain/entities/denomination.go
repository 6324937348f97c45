package entities

import "fmt"

// DenominationKind distinguishes the native unit from an external fungible token
type DenominationKind string

const (
	DenominationNative DenominationKind = "native"
	DenominationToken  DenominationKind = "token"
)

// Denomination identifies the fungible unit a campaign is raised in.
// It is fixed at campaign creation; all ledger code is denomination-agnostic
// and only the transport adapter branches on the kind.
type Denomination struct {
	Kind  DenominationKind `db:"denomination_kind"`
	Token string           `db:"denomination_token"`
}

// NativeDenomination returns the native-unit denomination
func NativeDenomination() Denomination {
	return Denomination{Kind: DenominationNative}
}

// TokenDenomination returns a denomination backed by an external fungible token
func TokenDenomination(token string) Denomination {
	return Denomination{Kind: DenominationToken, Token: token}
}

// IsNative returns true for the native-unit denomination
func (d Denomination) IsNative() bool {
	return d.Kind == DenominationNative
}

// Validate checks the kind/token pairing
func (d Denomination) Validate() error {
	switch d.Kind {
	case DenominationNative:
		if d.Token != "" {
			return fmt.Errorf("%w: native denomination cannot reference a token", ErrInvalidConfig)
		}
	case DenominationToken:
		if d.Token == "" {
			return fmt.Errorf("%w: token denomination requires a token reference", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown denomination kind %q", ErrInvalidConfig, d.Kind)
	}
	return nil
}
