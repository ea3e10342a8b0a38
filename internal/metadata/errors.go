package metadata

import (
	"errors"
	"fmt"
)

var (
	ErrProviderNotRegistered     = errors.New("provider not registered")
	ErrProviderAlreadyRegistered = errors.New("provider already registered")
	ErrInvalidProvider           = errors.New("invalid provider")
	ErrInvalidCapability         = errors.New("invalid capability")
	ErrCapabilityNotImplemented  = errors.New("declared capability not implemented")
	ErrSearchUnsupported         = errors.New("provider does not support search")
	ErrSlotUnsupported           = errors.New("provider does not support slot")
	ErrProfileNotFound           = errors.New("profile not found")
	ErrProfileMediaType          = errors.New("profile media type mismatch")
	ErrProfileDeleted            = errors.New("profile deleted: search provider no longer registered")
	ErrInvalidSlot               = errors.New("invalid slot")
	ErrInvalidMediaType          = errors.New("invalid media type")
)

// ProviderError is a failure of one provider call. It is logged and absorbed by
// the engine; it never aborts sibling calls.
type ProviderError struct {
	ProviderID string
	Stage      string // "search" or "fetch"
	Slot       Slot
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Slot != "" {
		return fmt.Sprintf("provider=%s stage=%s slot=%s: %v", e.ProviderID, e.Stage, e.Slot, e.Err)
	}
	return fmt.Sprintf("provider=%s stage=%s: %v", e.ProviderID, e.Stage, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
