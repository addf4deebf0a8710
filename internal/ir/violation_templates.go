package ir

import (
	"fmt"

	language "github.com/hanpama/refetchgen/internal/language"
)

// NOTE: Keep messages stable to avoid breaking snapshot tests.

const (
	KindDuplicateFragment      ViolationKind = "DuplicateFragment"
	KindDuplicateOperation     ViolationKind = "DuplicateOperation"
	KindUnknownType            ViolationKind = "UnknownType"
	KindInvalidTypeCondition   ViolationKind = "InvalidTypeCondition"
	KindUnknownField           ViolationKind = "UnknownField"
	KindUndefinedFragment      ViolationKind = "UndefinedFragment"
	KindLeafWithSelections     ViolationKind = "LeafWithSelections"
	KindMissingSelections      ViolationKind = "MissingSelections"
	KindMissingRootType        ViolationKind = "MissingRootType"
	KindUndefinedVariable      ViolationKind = "UndefinedVariable"
	KindDuplicateVariable      ViolationKind = "DuplicateVariable"
	KindInvalidVariableType    ViolationKind = "InvalidVariableType"
	KindFragmentCycle          ViolationKind = "FragmentCycle"
	KindConflictingVariableUse ViolationKind = "ConflictingVariableUse"
)

func violationDuplicateFragment(name string, pos *language.Position) *Violation {
	return violationWithPosition(KindDuplicateFragment,
		fmt.Sprintf("Duplicate definitions for fragment %q", name), pos)
}

func violationDuplicateOperation(name string, pos *language.Position) *Violation {
	return violationWithPosition(KindDuplicateOperation,
		fmt.Sprintf("Duplicate definitions for operation %q", name), pos)
}

func violationUnknownType(typeName string, pos *language.Position) *Violation {
	return violationWithPosition(KindUnknownType,
		fmt.Sprintf("Unknown type %q", typeName), pos)
}

func violationInvalidTypeCondition(typeName string, pos *language.Position) *Violation {
	return violationWithPosition(KindInvalidTypeCondition,
		fmt.Sprintf("Fragments can only be declared on object, interface or union types, got %q", typeName), pos)
}

func violationUnknownField(fieldName, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(KindUnknownField,
		fmt.Sprintf("Cannot query field %q on type %q", fieldName, typeName), pos)
}

func violationUndefinedFragment(name string, pos *language.Position) *Violation {
	return violationWithPosition(KindUndefinedFragment,
		fmt.Sprintf("Undefined fragment %q", name), pos)
}

func violationLeafWithSelections(fieldName, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(KindLeafWithSelections,
		fmt.Sprintf("Field %q must not have a selection since type %q has no subfields", fieldName, typeName), pos)
}

func violationMissingSelections(fieldName, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(KindMissingSelections,
		fmt.Sprintf("Field %q of type %q must have a selection of subfields", fieldName, typeName), pos)
}

func violationMissingRootType(op language.Operation, pos *language.Position) *Violation {
	return violationWithPosition(KindMissingRootType,
		fmt.Sprintf("Schema does not support %s operations", op), pos)
}

func violationUndefinedVariable(name, fragment string, loc Location) *Violation {
	return NewViolation(KindUndefinedVariable,
		fmt.Sprintf("Variable \"$%s\" is used in %q but its type cannot be inferred", name, fragment), loc)
}

func violationDuplicateVariable(name string, pos *language.Position) *Violation {
	return violationWithPosition(KindDuplicateVariable,
		fmt.Sprintf("Variable \"$%s\" is declared more than once", name), pos)
}

func violationInvalidVariableType(name, typeName string, pos *language.Position) *Violation {
	return violationWithPosition(KindInvalidVariableType,
		fmt.Sprintf("Variable \"$%s\" cannot be of non-input type %q", name, typeName), pos)
}

func violationFragmentCycle(name string, loc Location) *Violation {
	return NewViolation(KindFragmentCycle,
		fmt.Sprintf("Cannot spread fragment %q within itself", name), loc)
}

func violationConflictingVariableUse(name, first, second string, loc Location) *Violation {
	return NewViolation(KindConflictingVariableUse,
		fmt.Sprintf("Variable \"$%s\" is used with incompatible types %s and %s", name, first, second), loc)
}
