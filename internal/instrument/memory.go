package instrument

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// maxReportNodes bounds the walk over large or deeply linked graphs.
const maxReportNodes = 10000

// MemoryNode is one visited value of a memory report.
type MemoryNode struct {
	Path string
	Size uint64
	Type string
}

// MemoryReport is a shallow, breadth-first account of the memory reachable
// from an object. Sizes are the value's own footprint plus the backing
// storage of strings, slices and maps; shared values are counted once.
type MemoryReport struct {
	Nodes     []MemoryNode
	Total     uint64
	Truncated bool
}

type queued struct {
	v    reflect.Value
	path string
}

type visitKey struct {
	ptr uintptr
	typ reflect.Type
}

// AnalyzeMemory walks obj breadth first through struct fields, pointers,
// interfaces, slice and array elements, and map keys and values.
func AnalyzeMemory(obj any) MemoryReport {
	var report MemoryReport
	if obj == nil {
		return report
	}

	seen := make(map[visitKey]bool)
	queue := []queued{{v: reflect.ValueOf(obj), path: "root"}}

	for len(queue) > 0 {
		if len(report.Nodes) >= maxReportNodes {
			report.Truncated = true
			break
		}

		cur := queue[0]
		queue = queue[1:]
		v := cur.v

		// Pointers and interfaces are followed in place.
		for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
			if v.IsNil() {
				break
			}
			if v.Kind() == reflect.Pointer {
				key := visitKey{ptr: v.Pointer(), typ: v.Type()}
				if seen[key] {
					v = reflect.Value{}
					break
				}
				seen[key] = true
			}
			v = v.Elem()
		}
		if !v.IsValid() {
			continue
		}

		if key, ok := referenceKey(v); ok {
			if seen[key] {
				continue
			}
			seen[key] = true
		}

		size := sizeOf(v)
		report.Total += size
		report.Nodes = append(report.Nodes, MemoryNode{Path: cur.path, Size: size, Type: v.Type().String()})

		switch v.Kind() {
		case reflect.Struct:
			t := v.Type()
			for i := range v.NumField() {
				queue = append(queue, queued{v: v.Field(i), path: cur.path + "." + t.Field(i).Name})
			}
		case reflect.Slice, reflect.Array:
			for i := range v.Len() {
				queue = append(queue, queued{v: v.Index(i), path: cur.path + "[" + strconv.Itoa(i) + "]"})
			}
		case reflect.Map:
			iter := v.MapRange()
			for iter.Next() {
				k := keyString(iter.Key())
				queue = append(queue,
					queued{v: iter.Key(), path: cur.path + ".key(" + k + ")"},
					queued{v: iter.Value(), path: cur.path + "[" + k + "]"},
				)
			}
		}
	}

	return report
}

// WriteTo prints one line per node followed by the total.
func (r MemoryReport) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	b.WriteString("\nMemory Report:\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	for _, n := range r.Nodes {
		fmt.Fprintf(&b, "%s: %d bytes (%s)\n", n.Path, n.Size, n.Type)
	}
	if r.Truncated {
		fmt.Fprintf(&b, "... truncated after %d nodes\n", len(r.Nodes))
	}
	b.WriteString(strings.Repeat("-", 50) + "\n")
	fmt.Fprintf(&b, "Total Memory Used: %d bytes (%s)\n\n", r.Total, humanize.IBytes(r.Total))

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// ReportMemory analyzes obj and writes the report to w.
func ReportMemory(w io.Writer, obj any) MemoryReport {
	report := AnalyzeMemory(obj)
	if _, err := report.WriteTo(w); err != nil {
		slog.Error("failed to write memory report", "error", err)
	}
	return report
}

// Profiled returns obj unchanged, printing its memory report to w first when
// enabled is true. Wrap constructors with it: Profiled(on, w, NewThing(...)).
func Profiled[T any](enabled bool, w io.Writer, obj T) T {
	if !enabled {
		return obj
	}
	report := ReportMemory(w, obj)
	slog.Debug("memory report",
		"type", fmt.Sprintf("%T", obj),
		"nodes", len(report.Nodes),
		"total", humanize.IBytes(report.Total),
	)
	return obj
}

func sizeOf(v reflect.Value) uint64 {
	size := uint64(v.Type().Size())
	switch v.Kind() {
	case reflect.String:
		size += uint64(v.Len())
	case reflect.Slice:
		size += uint64(v.Cap()) * uint64(v.Type().Elem().Size())
	case reflect.Map:
		size += uint64(v.Len()) * uint64(v.Type().Key().Size()+v.Type().Elem().Size())
	}
	return size
}

func referenceKey(v reflect.Value) (visitKey, bool) {
	switch v.Kind() {
	case reflect.Map, reflect.Slice:
		if v.IsNil() || (v.Kind() == reflect.Slice && v.Len() == 0) {
			return visitKey{}, false
		}
		return visitKey{ptr: v.Pointer(), typ: v.Type()}, true
	}
	return visitKey{}, false
}

func keyString(k reflect.Value) string {
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10)
	case reflect.Bool:
		return strconv.FormatBool(k.Bool())
	default:
		return k.Type().String()
	}
}
