package server

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

type methodType struct {
	method reflect.Method
}

type service struct {
	name   string
	rcvr   reflect.Value
	typ    reflect.Type
	method map[string]*methodType // keyed by wire name, e.g. "list_apps"
}

var (
	errorType = reflect.TypeOf((*error)(nil)).Elem()
	argsType  = reflect.TypeOf(map[string]any(nil))
	anyType   = reflect.TypeOf((*any)(nil)).Elem()
)

// NewService scans rcvr for admin methods.
func NewService(rcvr any) (*service, error) {
	typ := reflect.TypeOf(rcvr)
	if typ == nil || typ.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("admin: rcvr must be a pointer, got %T", rcvr)
	}
	if typ.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("admin: rcvr must point to a struct, got %s", typ.Elem().Kind())
	}
	svc := &service{
		name:   typ.Elem().Name(),
		rcvr:   reflect.ValueOf(rcvr),
		typ:    typ,
		method: make(map[string]*methodType),
	}
	svc.RegisterMethods()
	if len(svc.method) == 0 {
		return nil, fmt.Errorf("admin: %s has no methods of the form func(map[string]any) (any, error)", svc.name)
	}
	return svc, nil
}

// RegisterMethods keeps exported methods shaped func(args map[string]any) (any, error)
// and exposes them under their snake_case name ("ListApps" → "list_apps").
func (s *service) RegisterMethods() {
	for i := 0; i < s.typ.NumMethod(); i++ {
		method := s.typ.Method(i)
		mt := method.Type
		if mt.NumIn() != 2 || mt.In(1) != argsType ||
			mt.NumOut() != 2 || mt.Out(0) != anyType || mt.Out(1) != errorType {
			continue
		}
		s.method[wireName(method.Name)] = &methodType{method: method}
	}
}

// Call invokes the method via reflection.
func (s *service) Call(mType *methodType, args map[string]any) (any, error) {
	results := mType.method.Func.Call([]reflect.Value{s.rcvr, reflect.ValueOf(args)})
	var err error
	if !results[1].IsNil() {
		err = results[1].Interface().(error)
	}
	return results[0].Interface(), err
}

func wireName(goName string) string {
	var b strings.Builder
	for i, r := range goName {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
