package engine

import (
	"context"

	"braces.dev/errtrace"

	"github.com/tony23/pywbem/cim"
	"github.com/tony23/pywbem/cimerr"
	"github.com/tony23/pywbem/cimxml"
)

func (c *Connection) intrinsicRequest(namespace string, method string, params ...cimxml.Param) (*cimxml.Request, error) {
	ns, err := c.resolveNamespace(namespace, "")
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return &cimxml.Request{Method: method, Kind: cimxml.Intrinsic, Namespace: ns, Params: params}, nil
}

func (c *Connection) intrinsicRequestForPath(namespace string, path *cim.InstanceName, method string, params ...cimxml.Param) (*cimxml.Request, string, error) {
	pathNS := ""
	if path != nil {
		pathNS = path.Namespace
	}
	ns, err := c.resolveNamespace(namespace, pathNS)
	if err != nil {
		return nil, "", errtrace.Wrap(err)
	}
	if path != nil {
		path.Namespace = ns
	}
	req := &cimxml.Request{Method: method, Kind: cimxml.Intrinsic, Namespace: ns, Params: params}
	return req, ns, nil
}

// GetInstance returns the instance named by path.
func (c *Connection) GetInstance(ctx context.Context, namespace string, path *cim.InstanceName, localOnly bool) (*cim.Instance, error) {
	req, ns, err := c.intrinsicRequestForPath(namespace, path, "GetInstance",
		cimxml.Param{Name: "InstanceName", Value: path},
		cimxml.Param{Name: "LocalOnly", Value: cim.Boolean(localOnly)},
	)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	rv, err := c.perform(ctx, req, ns)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if len(rv.Instances) != 1 {
		return nil, errtrace.Wrap(cimerr.NewModelError("GetInstance reply carried %d instances, want 1", len(rv.Instances)))
	}
	return rv.Instances[0], nil
}

// EnumerateInstances returns every instance of className (and its
// subclasses) in namespace.
func (c *Connection) EnumerateInstances(ctx context.Context, namespace string, className string, deepInheritance bool) ([]*cim.Instance, error) {
	req, err := c.intrinsicRequest(namespace, "EnumerateInstances",
		cimxml.Param{Name: "ClassName", Value: &cim.ClassName{ClassName: className}},
		cimxml.Param{Name: "DeepInheritance", Value: cim.Boolean(deepInheritance)},
	)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	rv, err := c.perform(ctx, req, req.Namespace)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return rv.Instances, nil
}

// EnumerateInstanceNames returns the object paths of every instance of
// className in namespace.
func (c *Connection) EnumerateInstanceNames(ctx context.Context, namespace string, className string) ([]*cim.InstanceName, error) {
	req, err := c.intrinsicRequest(namespace, "EnumerateInstanceNames",
		cimxml.Param{Name: "ClassName", Value: &cim.ClassName{ClassName: className}},
	)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	rv, err := c.perform(ctx, req, req.Namespace)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return rv.InstanceNames, nil
}

// CreateInstance creates inst and returns its server-assigned path.
func (c *Connection) CreateInstance(ctx context.Context, namespace string, inst *cim.Instance) (*cim.InstanceName, error) {
	req, err := c.intrinsicRequest(namespace, "CreateInstance", cimxml.Param{Name: "NewInstance", Value: inst})
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	rv, err := c.perform(ctx, req, req.Namespace)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if len(rv.InstanceNames) != 1 {
		return nil, errtrace.Wrap(cimerr.NewModelError("CreateInstance reply carried %d paths, want 1", len(rv.InstanceNames)))
	}
	return rv.InstanceNames[0], nil
}

// ModifyInstance replaces the named properties of the instance at
// inst.Path (which must be set).
func (c *Connection) ModifyInstance(ctx context.Context, namespace string, inst *cim.Instance, includeQualifiers bool) error {
	if inst.Path == nil {
		return errtrace.Wrap(cimerr.NewModelError("ModifyInstance requires inst.Path to be set"))
	}
	if !cim.Name(inst.Path.ClassName).Equal(cim.Name(inst.ClassName)) {
		return errtrace.Wrap(cimerr.NewModelError("ModifyInstance: inst.Path.ClassName %q does not match inst.ClassName %q", inst.Path.ClassName, inst.ClassName))
	}
	req, ns, err := c.intrinsicRequestForPath(namespace, inst.Path, "ModifyInstance",
		cimxml.Param{Name: "ModifiedInstance", Value: inst},
		cimxml.Param{Name: "IncludeQualifiers", Value: cim.Boolean(includeQualifiers)},
	)
	if err != nil {
		return errtrace.Wrap(err)
	}
	if _, err := c.perform(ctx, req, ns); err != nil {
		return errtrace.Wrap(err)
	}
	return nil
}

// DeleteInstance deletes the instance named by path.
func (c *Connection) DeleteInstance(ctx context.Context, namespace string, path *cim.InstanceName) error {
	req, ns, err := c.intrinsicRequestForPath(namespace, path, "DeleteInstance", cimxml.Param{Name: "InstanceName", Value: path})
	if err != nil {
		return errtrace.Wrap(err)
	}
	if _, err := c.perform(ctx, req, ns); err != nil {
		return errtrace.Wrap(err)
	}
	return nil
}

// Associators returns the instances associated with path via resultClass/role.
func (c *Connection) Associators(ctx context.Context, namespace string, path *cim.InstanceName, resultClass, role, resultRole string) ([]cimxml.NamedInstance, error) {
	req, ns, err := c.intrinsicRequestForPath(namespace, path, "Associators",
		cimxml.Param{Name: "ObjectName", Value: path},
		cimxml.Param{Name: "ResultClass", Value: classNameParam(resultClass)},
		cimxml.Param{Name: "Role", Value: stringParam(role)},
		cimxml.Param{Name: "ResultRole", Value: stringParam(resultRole)},
	)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	rv, err := c.perform(ctx, req, ns)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return rv.NamedInstances, nil
}

// AssociatorNames returns the object paths associated with path.
func (c *Connection) AssociatorNames(ctx context.Context, namespace string, path *cim.InstanceName, resultClass, role, resultRole string) ([]*cim.InstanceName, error) {
	req, ns, err := c.intrinsicRequestForPath(namespace, path, "AssociatorNames",
		cimxml.Param{Name: "ObjectName", Value: path},
		cimxml.Param{Name: "ResultClass", Value: classNameParam(resultClass)},
		cimxml.Param{Name: "Role", Value: stringParam(role)},
		cimxml.Param{Name: "ResultRole", Value: stringParam(resultRole)},
	)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	rv, err := c.perform(ctx, req, ns)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return rv.InstanceNames, nil
}

// References returns the association instances referencing path.
func (c *Connection) References(ctx context.Context, namespace string, path *cim.InstanceName, resultClass, role string) ([]cimxml.NamedInstance, error) {
	req, ns, err := c.intrinsicRequestForPath(namespace, path, "References",
		cimxml.Param{Name: "ObjectName", Value: path},
		cimxml.Param{Name: "ResultClass", Value: classNameParam(resultClass)},
		cimxml.Param{Name: "Role", Value: stringParam(role)},
	)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	rv, err := c.perform(ctx, req, ns)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return rv.NamedInstances, nil
}

// ReferenceNames returns the object paths of association instances referencing path.
func (c *Connection) ReferenceNames(ctx context.Context, namespace string, path *cim.InstanceName, resultClass, role string) ([]*cim.InstanceName, error) {
	req, ns, err := c.intrinsicRequestForPath(namespace, path, "ReferenceNames",
		cimxml.Param{Name: "ObjectName", Value: path},
		cimxml.Param{Name: "ResultClass", Value: classNameParam(resultClass)},
		cimxml.Param{Name: "Role", Value: stringParam(role)},
	)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	rv, err := c.perform(ctx, req, ns)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return rv.InstanceNames, nil
}

// ExecQuery runs a query in queryLanguage against namespace.
func (c *Connection) ExecQuery(ctx context.Context, namespace, queryLanguage, query string) ([]*cim.Instance, error) {
	req, err := c.intrinsicRequest(namespace, "ExecQuery",
		cimxml.Param{Name: "QueryLanguage", Value: cim.String(queryLanguage)},
		cimxml.Param{Name: "Query", Value: cim.String(query)},
	)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	rv, err := c.perform(ctx, req, req.Namespace)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return rv.Instances, nil
}

// GetClass returns className's class declaration.
func (c *Connection) GetClass(ctx context.Context, namespace, className string, localOnly bool) (*cim.Class, error) {
	req, err := c.intrinsicRequest(namespace, "GetClass",
		cimxml.Param{Name: "ClassName", Value: &cim.ClassName{ClassName: className}},
		cimxml.Param{Name: "LocalOnly", Value: cim.Boolean(localOnly)},
	)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	rv, err := c.perform(ctx, req, req.Namespace)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if len(rv.Classes) != 1 {
		return nil, errtrace.Wrap(cimerr.NewModelError("GetClass reply carried %d classes, want 1", len(rv.Classes)))
	}
	return rv.Classes[0], nil
}

// EnumerateClasses returns the subclasses of className (or every
// top-level class when className is empty) in namespace.
func (c *Connection) EnumerateClasses(ctx context.Context, namespace, className string, deepInheritance bool) ([]*cim.Class, error) {
	params := []cimxml.Param{{Name: "DeepInheritance", Value: cim.Boolean(deepInheritance)}}
	if className != "" {
		params = append([]cimxml.Param{{Name: "ClassName", Value: &cim.ClassName{ClassName: className}}}, params...)
	}
	req, err := c.intrinsicRequest(namespace, "EnumerateClasses", params...)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	rv, err := c.perform(ctx, req, req.Namespace)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return rv.Classes, nil
}

// InvokeMethod invokes the extrinsic method methodName on the object
// named by path (or classPath for a static/class-scoped invocation),
// returning the method's return value and its output parameters.
//
// inParams is an ordered, case-insensitive map rather than a plain Go
// map: cimxml.EncodeRequest never reorders the parameters it's handed (spec
// §4.3's deterministic-ordering requirement), so the caller must
// supply them in a fixed order to begin with. Build one with
// cim.NewOrderedMap[cim.Value]() and repeated Set calls.
func (c *Connection) InvokeMethod(ctx context.Context, namespace string, path *cim.InstanceName, classPath *cim.ClassName, methodName string, inParams *cim.OrderedMap[cim.Value]) (cim.Value, *cim.OrderedMap[cim.Value], error) {
	pathNS := ""
	if path != nil {
		pathNS = path.Namespace
	} else if classPath != nil {
		pathNS = classPath.Namespace
	}
	ns, err := c.resolveNamespace(namespace, pathNS)
	if err != nil {
		return nil, nil, errtrace.Wrap(err)
	}
	if path != nil {
		path.Namespace = ns
	}
	if classPath != nil {
		classPath.Namespace = ns
	}

	var params []cimxml.Param
	if inParams != nil {
		params = make([]cimxml.Param, 0, inParams.Len())
		inParams.Range(func(name string, v cim.Value) bool {
			params = append(params, cimxml.Param{Name: name, Value: v})
			return true
		})
	}

	req := &cimxml.Request{
		Method:       methodName,
		Kind:         cimxml.Extrinsic,
		InstancePath: path,
		ClassPath:    classPath,
		Params:       params,
	}
	rv, err := c.perform(ctx, req, ns)
	if err != nil {
		return nil, nil, errtrace.Wrap(err)
	}
	var retVal cim.Value
	if len(rv.Values) == 1 {
		retVal = rv.Values[0]
	}
	return retVal, rv.OutParams, nil
}

func classNameParam(s string) any {
	if s == "" {
		return nil
	}
	return &cim.ClassName{ClassName: s}
}

func stringParam(s string) any {
	if s == "" {
		return nil
	}
	return cim.String(s)
}
