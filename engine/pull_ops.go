package engine

import (
	"context"

	"braces.dev/errtrace"

	"github.com/tony23/pywbem/cim"
	"github.com/tony23/pywbem/cimxml"
)

// EnumerationBatch is one page of a pull enumeration: the batch of
// named instances returned so far, and whether the server reports the
// sequence complete.
type EnumerationBatch struct {
	Instances          []cimxml.NamedInstance
	EnumerationContext string
	EndOfSequence      bool
}

// OpenEnumerateInstances opens a pull enumeration over className's
// instances in namespace, returning the first batch.
func (c *Connection) OpenEnumerateInstances(ctx context.Context, namespace, className string) (*EnumerationBatch, error) {
	req, err := c.intrinsicRequest(namespace, "OpenEnumerateInstances",
		cimxml.Param{Name: "ClassName", Value: &cim.ClassName{ClassName: className}},
	)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return c.openPull(ctx, req)
}

// OpenAssociatorInstances opens a pull enumeration over the instances
// associated with path.
func (c *Connection) OpenAssociatorInstances(ctx context.Context, namespace string, path *cim.InstanceName, resultClass, role, resultRole string) (*EnumerationBatch, error) {
	req, ns, err := c.intrinsicRequestForPath(namespace, path, "OpenAssociatorInstances",
		cimxml.Param{Name: "ObjectName", Value: path},
		cimxml.Param{Name: "ResultClass", Value: classNameParam(resultClass)},
		cimxml.Param{Name: "Role", Value: stringParam(role)},
		cimxml.Param{Name: "ResultRole", Value: stringParam(resultRole)},
	)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	req.Namespace = ns
	return c.openPull(ctx, req)
}

func (c *Connection) openPull(ctx context.Context, req *cimxml.Request) (*EnumerationBatch, error) {
	rv, err := c.perform(ctx, req, req.Namespace)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	batch := &EnumerationBatch{
		Instances:          rv.NamedInstances,
		EnumerationContext: rv.EnumerationContext,
		EndOfSequence:      rv.EndOfSequence,
	}
	if !batch.EndOfSequence && batch.EnumerationContext != "" {
		c.open(batch.EnumerationContext)
	}
	return batch, nil
}

// PullInstancesWithPath pulls the next batch of at most maxObjectCount
// named instances from an open enumeration context.
func (c *Connection) PullInstancesWithPath(ctx context.Context, enumContext string, maxObjectCount int) (*EnumerationBatch, error) {
	if err := c.requirePullable(enumContext); err != nil {
		return nil, errtrace.Wrap(err)
	}
	req := &cimxml.Request{
		Method: "PullInstancesWithPath",
		Kind:   cimxml.Intrinsic,
		// Namespace is irrelevant once an enumeration is open — the
		// context alone identifies it server-side — but the encoder
		// still requires a non-empty value, so reuse the connection
		// default rather than invent a second namespace parameter.
		Namespace: c.cfg.DefaultNamespace,
		Params: []cimxml.Param{
			{Name: "EnumerationContext", Value: cim.String(enumContext)},
			{Name: "MaxObjectCount", Value: cim.Uint32(maxObjectCount)},
		},
	}
	if req.Namespace == "" {
		req.Namespace = "root"
	}
	rv, err := c.perform(ctx, req, enumContext)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	batch := &EnumerationBatch{
		Instances:          rv.NamedInstances,
		EnumerationContext: rv.EnumerationContext,
		EndOfSequence:      rv.EndOfSequence,
	}
	c.advance(ctx, enumContext, batch.EndOfSequence)
	return batch, nil
}

// CloseEnumeration abandons an open pull-enumeration context before
// it reaches EndOfSequence.
func (c *Connection) CloseEnumeration(ctx context.Context, enumContext string) error {
	if err := c.closeEnumeration(ctx, enumContext); err != nil {
		return errtrace.Wrap(err)
	}
	req := &cimxml.Request{
		Method:    "CloseEnumeration",
		Kind:      cimxml.Intrinsic,
		Namespace: c.cfg.DefaultNamespace,
		Params:    []cimxml.Param{{Name: "EnumerationContext", Value: cim.String(enumContext)}},
	}
	if req.Namespace == "" {
		req.Namespace = "root"
	}
	if _, err := c.perform(ctx, req, enumContext); err != nil {
		return errtrace.Wrap(err)
	}
	return nil
}
