// Package cim implements the typed CIM (Common Information Model) data
// model carried over CIM-XML: scalar and array values, object paths,
// instances, classes, and their properties, methods, parameters and
// qualifiers.
//
// All CIM names (class, property, method, parameter, qualifier) are
// case-insensitive for lookup and equality but preserve their original
// case when the object originates from a decoded server response. See
// [Name] and [OrderedMap] for how that invariant is implemented.
//
// Values are represented as the [Value] interface, implemented by one
// concrete type per CIM type code plus [Array] for array-typed
// properties and parameters. [InstanceName] keybindings may themselves
// hold a nested [InstanceName] through [ReferenceValue], which is how
// reference-typed keys are modeled without introducing pointer cycles:
// every path is an immutable value.
package cim
