package envelope

import "context"

// PlaceholderSig is what NoopSigner puts in every sig field.
const PlaceholderSig = "signature_placeholder"

// Signer produces and checks envelope signatures. Implementations may look up
// device keys; the ledger only calls through this interface.
type Signer interface {
	Sign(ctx context.Context, msg []byte) (string, error)
	Verify(ctx context.Context, req Request) error
}

// NoopSigner accepts every request and signs with PlaceholderSig.
type NoopSigner struct{}

func (NoopSigner) Sign(context.Context, []byte) (string, error) {
	return PlaceholderSig, nil
}

func (NoopSigner) Verify(context.Context, Request) error {
	return nil
}
