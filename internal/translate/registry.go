package translate

import (
	"github.com/roach88/relquery/internal/expr"
)

// MethodCallTranslator translates a method call whose object and arguments
// are already translated. It returns a nil node when the call is not one
// it handles.
type MethodCallTranslator interface {
	Translate(call *expr.Call) (expr.Node, error)
}

// MethodCallTranslatorFunc adapts a function to MethodCallTranslator.
type MethodCallTranslatorFunc func(call *expr.Call) (expr.Node, error)

func (f MethodCallTranslatorFunc) Translate(call *expr.Call) (expr.Node, error) {
	return f(call)
}

// MemberTranslator translates a member read whose operand is already
// translated. It returns a nil node when the member is not one it handles.
type MemberTranslator interface {
	Translate(member *expr.Member) (expr.Node, error)
}

// MemberTranslatorFunc adapts a function to MemberTranslator.
type MemberTranslatorFunc func(member *expr.Member) (expr.Node, error)

func (f MemberTranslatorFunc) Translate(member *expr.Member) (expr.Node, error) {
	return f(member)
}

// MethodCallTranslatorProvider is an ordered set of method call
// translators. The first translator producing a node wins.
type MethodCallTranslatorProvider struct {
	translators []MethodCallTranslator
}

// NewMethodCallTranslatorProvider returns a provider holding the built-in
// equality translator.
func NewMethodCallTranslatorProvider(applier *TypeMappingApplier) *MethodCallTranslatorProvider {
	return &MethodCallTranslatorProvider{
		translators: []MethodCallTranslator{NewEqualsTranslator(applier)},
	}
}

// Translate returns the first non-nil translation of call, or nil.
func (p *MethodCallTranslatorProvider) Translate(call *expr.Call) (expr.Node, error) {
	for _, t := range p.translators {
		n, err := t.Translate(call)
		if err != nil {
			return nil, err
		}
		if n != nil {
			return n, nil
		}
	}
	return nil, nil
}

// AddTranslators prepends translators so they take precedence over those
// already registered.
func (p *MethodCallTranslatorProvider) AddTranslators(translators ...MethodCallTranslator) {
	p.translators = append(append([]MethodCallTranslator{}, translators...), p.translators...)
}

// MemberTranslatorProvider is an ordered set of member translators. The
// first translator producing a node wins.
type MemberTranslatorProvider struct {
	translators []MemberTranslator
}

// NewMemberTranslatorProvider returns an empty provider.
func NewMemberTranslatorProvider() *MemberTranslatorProvider {
	return &MemberTranslatorProvider{}
}

// Translate returns the first non-nil translation of member, or nil.
func (p *MemberTranslatorProvider) Translate(member *expr.Member) (expr.Node, error) {
	for _, t := range p.translators {
		n, err := t.Translate(member)
		if err != nil {
			return nil, err
		}
		if n != nil {
			return n, nil
		}
	}
	return nil, nil
}

// AddTranslators prepends translators so they take precedence over those
// already registered.
func (p *MemberTranslatorProvider) AddTranslators(translators ...MemberTranslator) {
	p.translators = append(append([]MemberTranslator{}, translators...), p.translators...)
}
