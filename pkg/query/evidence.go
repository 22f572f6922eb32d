package query

import (
	"github.com/dexlens/dexlens/pkg/model"
	"github.com/dexlens/dexlens/pkg/xref"
)

// Kind names which concrete variant an Evidence carries.
type Kind int

const (
	KindClass Kind = iota
	KindMethod
	KindField
	KindSite
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindMethod:
		return "method"
	case KindField:
		return "field"
	case KindSite:
		return "site"
	default:
		return "unknown"
	}
}

// Evidence is the tagged variant returned by Find and CrossReferences:
// a class, method, field, or instruction site, named by Kind. Only the
// field matching Kind is populated.
type Evidence struct {
	Kind   Kind
	Class  *model.Class
	Method *model.Method
	Field  *model.Field
	Site   *xref.CiteSite
}

// AsClass downcasts to the class variant, or a recoverable
// TypeMismatch error if this Evidence holds something else.
func (e Evidence) AsClass() (*model.Class, error) {
	if e.Kind != KindClass {
		return nil, typeMismatch(KindClass.String(), e.Kind.String())
	}
	return e.Class, nil
}

func (e Evidence) AsMethod() (*model.Method, error) {
	if e.Kind != KindMethod {
		return nil, typeMismatch(KindMethod.String(), e.Kind.String())
	}
	return e.Method, nil
}

func (e Evidence) AsField() (*model.Field, error) {
	if e.Kind != KindField {
		return nil, typeMismatch(KindField.String(), e.Kind.String())
	}
	return e.Field, nil
}

func (e Evidence) AsSite() (*xref.CiteSite, error) {
	if e.Kind != KindSite {
		return nil, typeMismatch(KindSite.String(), e.Kind.String())
	}
	return e.Site, nil
}

func classEvidence(c *model.Class) Evidence   { return Evidence{Kind: KindClass, Class: c} }
func methodEvidence(m *model.Method) Evidence { return Evidence{Kind: KindMethod, Method: m} }
func fieldEvidence(f *model.Field) Evidence   { return Evidence{Kind: KindField, Field: f} }
func siteEvidence(s xref.CiteSite) Evidence   { return Evidence{Kind: KindSite, Site: &s} }
