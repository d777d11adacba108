// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtlsim

import (
	"reflect"
	"strconv"
	"strings"
)

var signalIDType = reflect.TypeOf(NoSignal)

var tagKinds = map[string]SignalKind{
	"in":   KindInput,
	"out":  KindOutput,
	"wire": KindWire,
	"reg":  KindRegister,
}

// Declare declares the signals described by the fields of the struct pointed
// to by ports. Signals are identified by field tags and their ID is stored in
// the corresponding field.
//
// The field tag must be `rtl:"kind,width"` where kind is one of in, out, wire
// or reg. By default, the signal name is the field name in lowercase. A
// specific name can be forced by adding it in the tag: `rtl:"in,8,data_in"`.
//
// Fields must be of type SignalID or arrays of SignalID. Arrays declare one
// signal per element, named name[0], name[1], etc. Outputs, wires and
// registers are left undriven, to be driven later with Assign or SetNext.
//
//	var p struct {
//		A   rtlsim.SignalID    `rtl:"in,8"`
//		Sel rtlsim.SignalID    `rtl:"in,1,s"`
//		Out rtlsim.SignalID    `rtl:"out,8"`
//		Tmp [2]rtlsim.SignalID `rtl:"wire,4"`
//	}
//	b.Declare(&p)
//
func (b *Builder) Declare(ports interface{}) {
	if b.err != nil {
		return
	}
	v := reflect.ValueOf(ports)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		b.fail(structErr(InvalidKind, NoOp, NoSignal, "unsupported type %T", ports), "declare")
		return
	}
	e := v.Elem()
	typ := e.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("rtl")
		if !ok {
			continue
		}
		ctx := "declare " + typ.Name() + "." + f.Name
		tv := strings.Split(tag, ",")
		if len(tv) < 2 || len(tv) > 3 {
			b.fail(structErr(InvalidKind, NoOp, NoSignal, "malformed tag %q", tag), ctx)
			return
		}
		kind, ok := tagKinds[tv[0]]
		if !ok {
			b.fail(structErr(InvalidKind, NoOp, NoSignal, "unsupported signal kind %q", tv[0]), ctx)
			return
		}
		width, err := strconv.Atoi(tv[1])
		if err != nil {
			b.fail(structErr(InvalidWidth, NoOp, NoSignal, "bad width %q", tv[1]), ctx)
			return
		}
		name := strings.ToLower(f.Name)
		if len(tv) == 3 && tv[2] != "" {
			name = tv[2]
		}

		fv := e.Field(i)
		switch ft := f.Type; {
		case ft == signalIDType:
			if !fv.CanSet() {
				b.fail(structErr(InvalidKind, NoOp, NoSignal, "unexported field"), ctx)
				return
			}
			fv.SetInt(int64(b.signal(width, kind, name)))
		case ft.Kind() == reflect.Array && ft.Elem() == signalIDType:
			if !fv.CanSet() {
				b.fail(structErr(InvalidKind, NoOp, NoSignal, "unexported field"), ctx)
				return
			}
			for j := 0; j < fv.Len(); j++ {
				fv.Index(j).SetInt(int64(b.signal(width, kind, name+"["+strconv.Itoa(j)+"]")))
			}
		default:
			b.fail(structErr(InvalidKind, NoOp, NoSignal, "unsupported field type %v", ft), ctx)
			return
		}
		if b.err != nil {
			return
		}
	}
}
