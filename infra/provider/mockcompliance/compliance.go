// Package mockcompliance approves every foreign transfer. It stands in for
// the real compliance service in development environments.
package mockcompliance

import (
	"context"
	"fmt"

	"github.com/cashnoteio/cashnote/pkg/provider"
)

type validator struct{}

// New returns a ComplianceValidator that approves everything.
func New() provider.ComplianceValidator {
	return &validator{}
}

// ValidateForeignTransfer implements provider.ComplianceValidator.
func (validator) ValidateForeignTransfer(
	ctx context.Context,
	req provider.ComplianceRequest,
) (*provider.ComplianceResult, error) {
	return &provider.ComplianceResult{
		Approved:  true,
		Reference: fmt.Sprintf("mock-%s", req.NoteID),
	}, nil
}
