package intersight

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// Signature schemes. EC (v3) keys use hs2019 with a bounded validity window,
// RSA (v2) keys use rsa-sha256.
const (
	schemeHS2019    = "hs2019"
	schemeRSASHA256 = "rsa-sha256"
)

// signer produces HTTP message signatures for API requests.
type signer struct {
	keyID    string
	key      crypto.PrivateKey
	validity time.Duration
}

// LoadPrivateKey reads a PEM encoded EC or RSA private key.
func LoadPrivateKey(path string) (crypto.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secret key: %w", err)
	}
	key, err := ssh.ParseRawPrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("parse secret key %s: %w", path, err)
	}
	switch key.(type) {
	case *ecdsa.PrivateKey, *rsa.PrivateKey:
		return key, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, key)
	}
}

func (s *signer) scheme() string {
	if _, ok := s.key.(*rsa.PrivateKey); ok {
		return schemeRSASHA256
	}
	return schemeHS2019
}

// sign sets the Date, Digest, Host and Authorization headers on req.
func (s *signer) sign(req *http.Request, body []byte, now time.Time) error {
	sum := sha256.Sum256(body)
	req.Header.Set("Date", now.UTC().Format(http.TimeFormat))
	req.Header.Set("Digest", "SHA-256="+base64.StdEncoding.EncodeToString(sum[:]))
	req.Host = req.URL.Host

	scheme := s.scheme()
	created := now.Unix()
	expires := now.Add(s.validity).Unix()

	headers, signingString := signingInput(req, scheme, created, expires)

	digest := sha256.Sum256([]byte(signingString))
	var sig []byte
	var err error
	switch key := s.key.(type) {
	case *ecdsa.PrivateKey:
		sig, err = ecdsa.SignASN1(rand.Reader, key, digest[:])
	case *rsa.PrivateKey:
		sig, err = rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	default:
		err = fmt.Errorf("%w: %T", ErrUnsupportedKey, s.key)
	}
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}

	params := []string{
		fmt.Sprintf("keyId=%q", s.keyID),
		fmt.Sprintf("algorithm=%q", scheme),
	}
	if scheme == schemeHS2019 {
		params = append(params, "created="+strconv.FormatInt(created, 10), "expires="+strconv.FormatInt(expires, 10))
	}
	params = append(params,
		fmt.Sprintf("headers=%q", strings.Join(headers, " ")),
		fmt.Sprintf("signature=%q", base64.StdEncoding.EncodeToString(sig)),
	)
	req.Header.Set("Authorization", "Signature "+strings.Join(params, ","))
	return nil
}

// signingInput returns the covered header names and the string to sign.
func signingInput(req *http.Request, scheme string, created, expires int64) ([]string, string) {
	headers := []string{"(request-target)"}
	if scheme == schemeHS2019 {
		headers = append(headers, "(created)", "(expires)")
	}
	headers = append(headers, "host", "date", "digest", "content-type", "user-agent")

	lines := make([]string, 0, len(headers))
	for _, h := range headers {
		var value string
		switch h {
		case "(request-target)":
			value = strings.ToLower(req.Method) + " " + req.URL.RequestURI()
		case "(created)":
			value = strconv.FormatInt(created, 10)
		case "(expires)":
			value = strconv.FormatInt(expires, 10)
		case "host":
			value = req.Host
		default:
			value = req.Header.Get(h)
		}
		lines = append(lines, h+": "+value)
	}
	return headers, strings.Join(lines, "\n")
}
