package model

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
)

// supportedMACs maps the algorithm name of an X-Hub-Signature header to its
// hash constructor.
var supportedMACs = map[string]func() hash.Hash{
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
}

// VerifySignature validates an inbound delivery against the binding's
// shared secret. The signature header has the form "<algo>=<hex_digest>".
// When no secret is configured the delivery is accepted without checking;
// this is the documented policy for secret-less bindings, not a fallback.
func VerifySignature(body []byte, sigHeader string, secret types.WebhookSecret) error {
	if secret == "" {
		return nil
	}

	if sigHeader == "" {
		return goerr.Wrap(types.ErrMissingSignature, "X-Hub-Signature header is required")
	}

	algo, digest, found := strings.Cut(sigHeader, "=")
	if !found {
		return goerr.Wrap(types.ErrMissingSignature, "malformed signature header",
			goerr.V("header", sigHeader),
		)
	}

	newHash, ok := supportedMACs[algo]
	if !ok {
		return goerr.Wrap(types.ErrUnsupportedAlgorithm, "unknown MAC algorithm",
			goerr.V("algorithm", algo),
		)
	}

	mac := hmac.New(newHash, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	// hmac.Equal is constant time
	if !hmac.Equal([]byte(expected), []byte(digest)) {
		return goerr.Wrap(types.ErrSignatureMismatch, "digest mismatch",
			goerr.V("algorithm", algo),
		)
	}

	return nil
}

// SignBody computes the signature header value for a body and secret, used
// by outbound test deliveries and the test suite.
func SignBody(algo string, body []byte, secret types.WebhookSecret) (string, error) {
	newHash, ok := supportedMACs[algo]
	if !ok {
		return "", goerr.Wrap(types.ErrUnsupportedAlgorithm, "unknown MAC algorithm",
			goerr.V("algorithm", algo),
		)
	}

	mac := hmac.New(newHash, []byte(secret))
	mac.Write(body)
	return algo + "=" + hex.EncodeToString(mac.Sum(nil)), nil
}
