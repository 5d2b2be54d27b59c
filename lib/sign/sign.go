package sign

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws/credentials"
	v4 "github.com/aws/aws-sdk-go/aws/signer/v4"
)

const (
	ServiceServerless = "aoss"
	ServiceDomain     = "es"
)

// AwsSigner signs opensearch transport requests with SigV4.
type AwsSigner struct {
	Service     string
	Region      string
	Credentials *credentials.Credentials
	// Now is overridden in tests.
	Now func() time.Time
}

func (s AwsSigner) SignRequest(req *http.Request) error {
	var b []byte
	if req.Body != nil {
		b2, err := io.ReadAll(req.Body)
		if err != nil {
			return err
		}
		req.Body.Close()
		b = b2
	}
	// aoss rejects requests without an explicit payload hash.
	sum := sha256.Sum256(b)
	req.Header.Set("X-Amz-Content-Sha256", hex.EncodeToString(sum[:]))

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	signer := v4.NewSigner(s.Credentials)
	_, err := signer.Sign(req, bytes.NewReader(b), s.Service, s.Region, now())
	return err
}
