package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAuthExchange marks a rejected service-account token exchange. Vault
	// operations cannot proceed until a new token is minted successfully.
	ErrAuthExchange = errors.New("auth exchange error")
	// ErrVaultTransport marks a non-success HTTP response from object storage.
	ErrVaultTransport = errors.New("vault transport error")
	// ErrProjectNotFound marks a vault lookup for a project slug that has no
	// stored state object.
	ErrProjectNotFound = errors.New("project not found")
	// ErrGenerationFailure marks a failed generation collaborator call. Shots
	// move to their failed status but keep previously stored artifacts.
	ErrGenerationFailure = errors.New("generation failure")
	// ErrBusy marks a generation-class command rejected because the single
	// generation slot is already held.
	ErrBusy = errors.New("generation in progress")

	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
