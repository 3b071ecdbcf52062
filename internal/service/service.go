package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/shopspring/decimal"

	"teranga/internal/apierror"
	"teranga/internal/metrics"
	"teranga/internal/repository"
)

// notFoundOr turns gorm's record-not-found into a NotFound domain error and
// passes any other error through untouched.
func notFoundOr(err error, format string, args ...any) error {
	if repository.IsNotFound(err) {
		return apierror.E(apierror.KindNotFound, format, args...)
	}
	return err
}

// countRejection records an expected domain failure for the operation.
func countRejection(op string, err error) {
	if kind := apierror.KindOf(err); kind != apierror.KindInternal {
		metrics.DomainErrors.WithLabelValues(op, string(kind)).Inc()
	}
}

// capabilityTokenBytes gives 192 bits of entropy per token.
const capabilityTokenBytes = 24

// newCapabilityToken returns an unguessable URL-safe token for table QR codes
// and dining sessions.
func newCapabilityToken() (string, error) {
	b := make([]byte, capabilityTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// quantityScale matches the decimal(12,3) stock columns. Finer values would be
// rounded by Postgres on each column separately and break reconciliation.
const quantityScale = 3

func checkQuantityScale(field string, d decimal.Decimal) error {
	if !d.Equal(d.Truncate(quantityScale)) {
		return apierror.E(apierror.KindValidation, "%s allows at most %d decimal places", field, quantityScale)
	}
	return nil
}
