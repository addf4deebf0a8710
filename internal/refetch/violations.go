package refetch

import (
	"fmt"

	"github.com/hanpama/refetchgen/internal/ir"
)

const (
	KindUnsupportedRefetchableFragment       ir.ViolationKind = "UnsupportedRefetchableFragment"
	KindInvalidViewerSchema                  ir.ViolationKind = "InvalidViewerSchemaForRefetchableFragmentOnViewer"
	KindInvalidNodeSchema                    ir.ViolationKind = "InvalidNodeSchemaForRefetchableFragmentOnNode"
	KindRefetchableFragmentOnNodeWithID      ir.ViolationKind = "RefetchableFragmentOnNodeWithExistingID"
	KindRefetchableFragmentMissingIDField    ir.ViolationKind = "RefetchableFragmentMissingIdField"
	KindRefetchableMissingQueryName          ir.ViolationKind = "RefetchableMissingQueryName"
	KindRefetchableInvalidQueryName          ir.ViolationKind = "RefetchableInvalidQueryName"
	KindDuplicateRefetchableOperation        ir.ViolationKind = "DuplicateRefetchableOperation"
	KindRefetchableQueryNameClashesOperation ir.ViolationKind = "RefetchableQueryNameClashesOperation"
)

func violationUnsupportedRefetchableFragment(f *ir.FragmentDefinition, supported string) *ir.Violation {
	return ir.NewViolation(KindUnsupportedRefetchableFragment,
		fmt.Sprintf("Invalid use of @%s on fragment %q: type %q is not refetchable, only fragments on %s are supported",
			RefetchableDirectiveName, f.Name.Value, f.TypeCondition.Name, supported),
		f.Name.Location)
}

func violationInvalidViewerSchema(f *ir.FragmentDefinition) *ir.Violation {
	return ir.NewViolation(KindInvalidViewerSchema,
		fmt.Sprintf("Invalid use of @%s on fragment %q: the schema must define an object type %q and a field %q on the query type of that type without arguments",
			RefetchableDirectiveName, f.Name.Value, ViewerTypeName, ViewerFieldName),
		f.Name.Location)
}

func violationInvalidNodeSchema(f *ir.FragmentDefinition) *ir.Violation {
	return ir.NewViolation(KindInvalidNodeSchema,
		fmt.Sprintf("Invalid use of @%s on fragment %q: the schema must define an interface %q with an %q field of type ID and a field %q(%s: ID!) on the query type returning it",
			RefetchableDirectiveName, f.Name.Value, NodeInterfaceName, NodeIDFieldName, NodeFieldName, NodeIDFieldName),
		f.Name.Location)
}

func violationRefetchableFragmentOnNodeWithID(f *ir.FragmentDefinition, loc ir.Location) *ir.Violation {
	return ir.NewViolation(KindRefetchableFragmentOnNodeWithID,
		fmt.Sprintf("Invalid use of @%s on fragment %q: fragments on %q may not use a variable named \"$%s\", it is reserved for the refetch query",
			RefetchableDirectiveName, f.Name.Value, NodeInterfaceName, NodeIDFieldName),
		f.Name.Location, loc)
}

func violationRefetchableFragmentMissingIDField(f *ir.FragmentDefinition) *ir.Violation {
	return ir.NewViolation(KindRefetchableFragmentMissingIDField,
		fmt.Sprintf("Invalid use of @%s on fragment %q: fragments on %q must select the %q field",
			RefetchableDirectiveName, f.Name.Value, NodeInterfaceName, NodeIDFieldName),
		f.Name.Location)
}

func violationRefetchableMissingQueryName(f *ir.FragmentDefinition, dir *ir.Directive) *ir.Violation {
	return ir.NewViolation(KindRefetchableMissingQueryName,
		fmt.Sprintf("Missing argument %q in @%s on fragment %q", QueryNameArgumentName, RefetchableDirectiveName, f.Name.Value),
		dir.Name.Location)
}

func violationRefetchableInvalidQueryName(f *ir.FragmentDefinition, arg *ir.Argument) *ir.Violation {
	return ir.NewViolation(KindRefetchableInvalidQueryName,
		fmt.Sprintf("Expected argument %q in @%s on fragment %q to be a non-empty string", QueryNameArgumentName, RefetchableDirectiveName, f.Name.Value),
		arg.Name.Location)
}

func violationDuplicateRefetchableOperation(queryName string, first, second *ir.FragmentDefinition) *ir.Violation {
	return ir.NewViolation(KindDuplicateRefetchableOperation,
		fmt.Sprintf("Query name %q is used by @%s on both %q and %q", queryName, RefetchableDirectiveName, first.Name.Value, second.Name.Value),
		second.Name.Location, first.Name.Location)
}

func violationQueryNameClashesOperation(queryName string, f *ir.FragmentDefinition, op *ir.OperationDefinition) *ir.Violation {
	return ir.NewViolation(KindRefetchableQueryNameClashesOperation,
		fmt.Sprintf("Query name %q of @%s on fragment %q is already used by an operation", queryName, RefetchableDirectiveName, f.Name.Value),
		f.Name.Location, op.Name.Location)
}
