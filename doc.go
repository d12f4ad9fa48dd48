// Package recjson reads and writes generic records as JSON.
//
// Reading accepts a single object, an array of objects, or a sequence of bare
// objects, and yields one record per object. Null members are dropped, and
// numbers are narrowed to Int32, Int64, Float32 or Float64 by range. Writing
// produces either an array envelope or newline-separated objects, compact or
// indented, and writes explicit nulls.
//
// With a schema bound through the IOContext, records are classified into field
// lists and every field runs through its operation pipeline before it is
// returned (read) or serialized (write).
//
// Design policy:
// - Keep only public APIs in the root package; put detailed implementations under internal/.
// - Formats are registered into an explicit recio.Registry; nothing is global.
// - The CLI lives under cmd/recjson.
//
// Typical usage:
//
//	reg := recio.NewRegistry()
//	recjson.Register(reg)
//
//	rd, _ := reg.NewReader(recjson.Format)
//	if err := rd.Open(recio.IOContext{In: f}); err != nil { ... }
//	defer rd.Close(true)
//	for {
//		rec, err := rd.Read()
//		if errors.Is(err, io.EOF) {
//			break
//		}
//		...
//	}
package recjson
