// Package errors provides structured error types for the object-model generator.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries context: member path, class and backend names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLayout, errors.KindInvalidFieldSize).
//		Class("Dog").
//		Path("Dog", "breedId").
//		Detail("field size must be positive, got %d", 0).
//		Build()
//
// Or use convenience constructors for the build-phase taxonomy:
//
//	err := errors.UnfinishedParent("Animal", "Dog")
//	err := errors.SlotOutOfRange(errors.PhaseEmit, "Dog", 4, 2)
//
// Every build-phase condition is reported before any instruction sequence is
// emitted. The Err* templates match any phase:
//
//	if errors.Is(err, errors.ErrInvalidFieldSize) { ... }
package errors
