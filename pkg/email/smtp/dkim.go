package smtp

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	msgauthdkim "github.com/emersion/go-msgauth/dkim"

	"github.com/dmitrymomot/mailkit/pkg/email"
)

var dkimHeaderKeys = []string{
	"from",
	"to",
	"cc",
	"reply-to",
	"subject",
	"date",
	"mime-version",
	"content-type",
	"message-id",
}

// DKIMSigner signs composed messages.
type DKIMSigner struct {
	domain   string
	selector string
	key      crypto.Signer
}

// NewDKIMSigner loads the PEM private key referenced by cfg.
func NewDKIMSigner(cfg email.DKIMConfig) (*DKIMSigner, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%w: dkim domain, selector and private key path are required", email.ErrInvalidConfig)
	}
	pemData, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read dkim key: %w", email.ErrInvalidConfig, err)
	}
	key, err := parsePrivateKey(pemData)
	if err != nil {
		return nil, fmt.Errorf("%w: parse dkim key: %w", email.ErrInvalidConfig, err)
	}
	return &DKIMSigner{domain: cfg.Domain, selector: cfg.Selector, key: key}, nil
}

// Sign returns msg with a DKIM-Signature header prepended. A nil signer returns msg unchanged.
func (s *DKIMSigner) Sign(msg []byte) ([]byte, error) {
	if s == nil {
		return msg, nil
	}

	opts := &msgauthdkim.SignOptions{
		Domain:                 s.domain,
		Selector:               s.selector,
		Signer:                 s.key,
		HeaderCanonicalization: msgauthdkim.CanonicalizationRelaxed,
		BodyCanonicalization:   msgauthdkim.CanonicalizationRelaxed,
		HeaderKeys:             dkimHeaderKeys,
	}

	var signed bytes.Buffer
	if err := msgauthdkim.Sign(&signed, bytes.NewReader(msg), opts); err != nil {
		return nil, fmt.Errorf("dkim sign: %w", err)
	}
	return signed.Bytes(), nil
}

func parsePrivateKey(pemData []byte) (crypto.Signer, error) {
	for {
		block, rest := pem.Decode(pemData)
		if block == nil {
			return nil, errors.New("no private key found in PEM data")
		}
		switch block.Type {
		case "RSA PRIVATE KEY":
			return x509.ParsePKCS1PrivateKey(block.Bytes)
		case "PRIVATE KEY":
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, err
			}
			signer, ok := key.(crypto.Signer)
			if !ok {
				return nil, errors.New("unsupported private key type in PKCS#8 container")
			}
			return signer, nil
		}
		pemData = rest
	}
}
