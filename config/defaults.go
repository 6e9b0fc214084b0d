// Copyright (c) 2026, The Pidicon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"reflect"
	"strconv"
)

// setDefaults walks the struct pointed to by v and sets any zero-value
// field that carries a `default:` tag, recursing into nested structs.
func setDefaults(v any) {
	setDefaultsValue(reflect.ValueOf(v).Elem())
}

func setDefaultsValue(rv reflect.Value) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		if f.Kind() == reflect.Struct {
			setDefaultsValue(f)
			continue
		}
		tag, ok := rt.Field(i).Tag.Lookup("default")
		if !ok || !f.IsZero() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(tag)
		case reflect.Bool:
			b, err := strconv.ParseBool(tag)
			if err == nil {
				f.SetBool(b)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(tag, 10, 64)
			if err == nil {
				f.SetInt(n)
			}
		case reflect.Float32, reflect.Float64:
			x, err := strconv.ParseFloat(tag, 64)
			if err == nil {
				f.SetFloat(x)
			}
		}
	}
}
