// Package keyvalue turns an env-tagged configuration struct into a sorted
// key/value list and renders it as a sourceable shell script.
package keyvalue

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"time"
)

// KV is a single environment-variable key/value pair.
type KV struct{ Key, Value string }

// Slice is a sortable collection of KV pairs.
type Slice []KV

func (s Slice) Len() int           { return len(s) }
func (s Slice) Less(i, j int) bool { return s[i].Key < s[j].Key }
func (s Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// EnvKV extracts the `env` tags and current values of cfg's fields.
func EnvKV(cfg any) (m Slice) {
	t := reflect.TypeOf(cfg)
	v := reflect.ValueOf(cfg)
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("env")
		if key == "" {
			continue
		}
		var val string
		switch fv := v.Field(i).Interface(); fv.(type) {
		case string:
			val = fv.(string)
		case int, int64, uint32, bool, time.Duration:
			val = fmt.Sprint(fv)
		}
		m = append(m, KV{key, val})
	}
	return
}

// PrintEnv renders cfg's environment variables as a shell script to w.
func PrintEnv(cfg any, w io.Writer) {
	_, _ = fmt.Fprintln(w, "#!/usr/bin/env bash")
	kvs := EnvKV(cfg)
	sort.Sort(kvs)
	for _, kv := range kvs {
		_, _ = fmt.Fprintf(w, "export %s=%s\n", kv.Key, strings.ReplaceAll(kv.Value, `"`, `\"`))
	}
}
