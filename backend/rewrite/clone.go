package rewrite

import (
	"go/ast"
	"reflect"
)

type cloneKey struct {
	ptr uintptr
	typ reflect.Type
}

// cloneFile returns a deep copy of f. Shared nodes, such as comment groups
// referenced from both a declaration and File.Comments, stay shared in the
// copy.
func cloneFile(f *ast.File) *ast.File {
	memo := map[cloneKey]reflect.Value{}
	return cloneValue(reflect.ValueOf(f), memo).Interface().(*ast.File)
}

func cloneValue(v reflect.Value, memo map[cloneKey]reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		key := cloneKey{ptr: v.Pointer(), typ: v.Type()}
		if c, ok := memo[key]; ok {
			return c
		}
		c := reflect.New(v.Type().Elem())
		memo[key] = c
		c.Elem().Set(cloneValue(v.Elem(), memo))
		return c

	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		c := reflect.New(v.Type()).Elem()
		c.Set(cloneValue(v.Elem(), memo))
		return c

	case reflect.Struct:
		c := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if !c.Field(i).CanSet() {
				continue
			}
			c.Field(i).Set(cloneValue(v.Field(i), memo))
		}
		return c

	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		c := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			c.Index(i).Set(cloneValue(v.Index(i), memo))
		}
		return c

	case reflect.Map:
		if v.IsNil() {
			return v
		}
		c := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			c.SetMapIndex(iter.Key(), cloneValue(iter.Value(), memo))
		}
		return c
	}
	return v
}
