// Command libsasarrow builds the C-callable shared library over the
// conversion pipeline:
//
//	go build -buildmode=c-shared -o libsasarrow.so ./cmd/libsasarrow
//
// Every exported operation returns a status code from the closed set in
// pkg/ffi; no Go panic or error value ever crosses the boundary. Every
// heap value handed to the caller is paired with exactly one release
// function, and all release functions are safe no-ops on NULL or
// already-released pointers. Batch and schema export uses the Arrow C
// Data Interface, so the receiving runtime frees the columnar data
// through the release callbacks embedded in the exported structs,
// independent of this library's lifetime.
package main

/*
#include <stdint.h>
#include <stdlib.h>
#include <string.h>

// Arrow C Data Interface structures
// See: https://arrow.apache.org/docs/format/CDataInterface.html

struct ArrowSchema {
    const char* format;
    const char* name;
    const char* metadata;
    int64_t flags;
    int64_t n_children;
    struct ArrowSchema** children;
    struct ArrowSchema* dictionary;
    void (*release)(struct ArrowSchema*);
    void* private_data;
};

struct ArrowArray {
    int64_t length;
    int64_t null_count;
    int64_t offset;
    int64_t n_buffers;
    int64_t n_children;
    const void** buffers;
    struct ArrowArray** children;
    struct ArrowArray* dictionary;
    void (*release)(struct ArrowArray*);
    void* private_data;
};

typedef uintptr_t SasArrowReaderHandle;
typedef uintptr_t SasArrowIteratorHandle;

typedef struct {
    uint64_t num_rows;
    uint32_t num_columns;
    uint32_t num_batches;
    uint32_t chunk_size;
} SasArrowReaderInfo;

typedef struct {
    const char* name;
    const char* type_name;
    uint32_t index;
} SasArrowColumnInfo;

typedef struct {
    const char* name;
    int32_t semantic_type;
    uint32_t byte_length;
} SasArrowColumnDescriptor;

typedef struct {
    int32_t value_type;
    int32_t is_null;
    const char* string_val;
    double numeric_val;
    int64_t int_val;
} SasArrowValue;

typedef struct {
    uint64_t row_count;
    uint64_t start_row;
    uint64_t end_row;
} SasArrowChunkInfo;
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/cdata"

	"github.com/ajitpratap0/sasarrow/pkg/ffi"

	// Register the available source decoders.
	_ "github.com/ajitpratap0/sasarrow/pkg/decoder/fixedfile"
)

// cstrdup copies a Go string into C-owned memory. Unlike C.CString it
// reports allocation failure instead of aborting, so multi-field
// constructions can roll back cleanly.
func cstrdup(s string) *C.char {
	n := len(s)
	p := C.malloc(C.size_t(n + 1))
	if p == nil {
		return nil
	}
	buf := unsafe.Slice((*C.char)(p), n+1)
	for i := 0; i < n; i++ {
		buf[i] = C.char(s[i])
	}
	buf[n] = 0
	return (*C.char)(p)
}

// lastErrorC backs sas_arrow_get_last_error. The returned pointer is
// valid until the next failing call from any thread without a handle of
// its own.
var (
	lastErrorMu sync.Mutex
	lastErrorC  *C.char
)

func cLastError(msg string) *C.char {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	if lastErrorC != nil {
		C.free(unsafe.Pointer(lastErrorC))
	}
	lastErrorC = cstrdup(msg)
	return lastErrorC
}

//export sas_arrow_reader_new
func sas_arrow_reader_new(filePath *C.char, chunkSize C.uint32_t, out *C.SasArrowReaderHandle) C.int32_t {
	if filePath == nil || out == nil {
		return C.int32_t(ffi.StatusNullArgument)
	}

	h, st := ffi.Open(C.GoString(filePath), uint32(chunkSize))
	if !st.Ok() {
		return C.int32_t(st)
	}

	*out = C.SasArrowReaderHandle(h)
	return C.int32_t(ffi.StatusOK)
}

//export sas_arrow_reader_get_info
func sas_arrow_reader_get_info(handle C.SasArrowReaderHandle, info *C.SasArrowReaderInfo) C.int32_t {
	if handle == 0 || info == nil {
		return C.int32_t(ffi.StatusNullArgument)
	}
	r, ok := ffi.Get(ffi.Handle(handle))
	if !ok {
		return C.int32_t(ffi.StatusNullArgument)
	}

	i, st := r.Info()
	if !st.Ok() {
		return C.int32_t(st)
	}

	info.num_rows = C.uint64_t(i.NumRows)
	info.num_columns = C.uint32_t(i.NumColumns)
	info.num_batches = C.uint32_t(i.NumBatches)
	info.chunk_size = C.uint32_t(i.ChunkSize)
	return C.int32_t(ffi.StatusOK)
}

//export sas_arrow_reader_get_column_info
func sas_arrow_reader_get_column_info(handle C.SasArrowReaderHandle, columnIndex C.uint32_t, columnInfo *C.SasArrowColumnInfo) C.int32_t {
	if handle == 0 || columnInfo == nil {
		return C.int32_t(ffi.StatusNullArgument)
	}
	r, ok := ffi.Get(ffi.Handle(handle))
	if !ok {
		return C.int32_t(ffi.StatusNullArgument)
	}

	// The output struct is left untouched unless every allocation
	// succeeds.
	ci, st := r.ColumnInfo(uint32(columnIndex))
	if !st.Ok() {
		return C.int32_t(st)
	}

	name := cstrdup(ci.Name)
	if name == nil {
		return C.int32_t(ffi.StatusOutOfMemory)
	}
	typeName := cstrdup(ci.TypeName)
	if typeName == nil {
		C.free(unsafe.Pointer(name))
		return C.int32_t(ffi.StatusOutOfMemory)
	}

	columnInfo.name = name
	columnInfo.type_name = typeName
	columnInfo.index = C.uint32_t(ci.Index)
	return C.int32_t(ffi.StatusOK)
}

//export sas_arrow_free_column_info
func sas_arrow_free_column_info(columnInfo *C.SasArrowColumnInfo) {
	if columnInfo == nil {
		return
	}
	if columnInfo.name != nil {
		C.free(unsafe.Pointer(columnInfo.name))
		columnInfo.name = nil
	}
	if columnInfo.type_name != nil {
		C.free(unsafe.Pointer(columnInfo.type_name))
		columnInfo.type_name = nil
	}
}

//export sas_arrow_reader_get_descriptors
func sas_arrow_reader_get_descriptors(handle C.SasArrowReaderHandle, out **C.SasArrowColumnDescriptor, count *C.uint32_t) C.int32_t {
	if handle == 0 || out == nil || count == nil {
		return C.int32_t(ffi.StatusNullArgument)
	}
	r, ok := ffi.Get(ffi.Handle(handle))
	if !ok {
		return C.int32_t(ffi.StatusNullArgument)
	}

	descs, st := r.Descriptors()
	if !st.Ok() {
		return C.int32_t(st)
	}

	n := len(descs)
	arr := (*C.SasArrowColumnDescriptor)(C.malloc(C.size_t(n) * C.sizeof_SasArrowColumnDescriptor))
	if arr == nil {
		return C.int32_t(ffi.StatusOutOfMemory)
	}
	slice := unsafe.Slice(arr, n)

	for i, d := range descs {
		name := cstrdup(d.Name)
		if name == nil {
			// Roll back everything allocated so far; the caller
			// never sees a half-populated array.
			for j := 0; j < i; j++ {
				C.free(unsafe.Pointer(slice[j].name))
			}
			C.free(unsafe.Pointer(arr))
			return C.int32_t(ffi.StatusOutOfMemory)
		}
		slice[i].name = name
		slice[i].semantic_type = C.int32_t(d.SemanticType)
		slice[i].byte_length = C.uint32_t(d.Length)
	}

	*out = arr
	*count = C.uint32_t(n)
	return C.int32_t(ffi.StatusOK)
}

//export sas_arrow_free_column_descriptors
func sas_arrow_free_column_descriptors(descriptors *C.SasArrowColumnDescriptor, count C.uint32_t) {
	if descriptors == nil {
		return
	}
	slice := unsafe.Slice(descriptors, int(count))
	for i := range slice {
		if slice[i].name != nil {
			C.free(unsafe.Pointer(slice[i].name))
			slice[i].name = nil
		}
	}
	C.free(unsafe.Pointer(descriptors))
}

//export sas_arrow_reader_get_schema
func sas_arrow_reader_get_schema(handle C.SasArrowReaderHandle, outSchema *C.struct_ArrowSchema) C.int32_t {
	if handle == 0 || outSchema == nil {
		return C.int32_t(ffi.StatusNullArgument)
	}
	r, ok := ffi.Get(ffi.Handle(handle))
	if !ok {
		return C.int32_t(ffi.StatusNullArgument)
	}

	s, st := r.Schema()
	if !st.Ok() {
		return C.int32_t(st)
	}

	cdata.ExportArrowSchema(s, (*cdata.CArrowSchema)(unsafe.Pointer(outSchema)))
	return C.int32_t(ffi.StatusOK)
}

//export sas_arrow_reader_get_batch
func sas_arrow_reader_get_batch(handle C.SasArrowReaderHandle, batchIndex C.uint32_t, outArray *C.struct_ArrowArray) C.int32_t {
	return exportBatch(handle, batchIndex, outArray, nil)
}

//export sas_arrow_reader_get_batch_with_schema
func sas_arrow_reader_get_batch_with_schema(handle C.SasArrowReaderHandle, batchIndex C.uint32_t, outArray *C.struct_ArrowArray, outSchema *C.struct_ArrowSchema) C.int32_t {
	if outSchema == nil {
		return C.int32_t(ffi.StatusNullArgument)
	}
	return exportBatch(handle, batchIndex, outArray, outSchema)
}

func exportBatch(handle C.SasArrowReaderHandle, batchIndex C.uint32_t, outArray *C.struct_ArrowArray, outSchema *C.struct_ArrowSchema) C.int32_t {
	if handle == 0 || outArray == nil {
		return C.int32_t(ffi.StatusNullArgument)
	}
	r, ok := ffi.Get(ffi.Handle(handle))
	if !ok {
		return C.int32_t(ffi.StatusNullArgument)
	}

	rec, st := r.Batch(uint32(batchIndex))
	if !st.Ok() {
		return C.int32_t(st)
	}
	defer rec.Release()

	cdata.ExportArrowRecordBatch(rec,
		(*cdata.CArrowArray)(unsafe.Pointer(outArray)),
		(*cdata.CArrowSchema)(unsafe.Pointer(outSchema)))
	return C.int32_t(ffi.StatusOK)
}

//export sas_arrow_reader_next_batch
func sas_arrow_reader_next_batch(handle C.SasArrowReaderHandle, outArray *C.struct_ArrowArray) C.int32_t {
	if handle == 0 || outArray == nil {
		return C.int32_t(ffi.StatusNullArgument)
	}
	r, ok := ffi.Get(ffi.Handle(handle))
	if !ok {
		return C.int32_t(ffi.StatusNullArgument)
	}

	rec, st := r.NextBatch()
	if !st.Ok() {
		return C.int32_t(st)
	}
	defer rec.Release()

	cdata.ExportArrowRecordBatch(rec,
		(*cdata.CArrowArray)(unsafe.Pointer(outArray)), nil)
	return C.int32_t(ffi.StatusOK)
}

//export sas_arrow_reader_reset
func sas_arrow_reader_reset(handle C.SasArrowReaderHandle) C.int32_t {
	if handle == 0 {
		return C.int32_t(ffi.StatusNullArgument)
	}
	r, ok := ffi.Get(ffi.Handle(handle))
	if !ok {
		return C.int32_t(ffi.StatusNullArgument)
	}
	return C.int32_t(r.Reset())
}

//export sas_arrow_reader_destroy
func sas_arrow_reader_destroy(handle C.SasArrowReaderHandle) {
	if handle == 0 {
		return
	}
	ffi.Destroy(ffi.Handle(handle))
}

//export sas_arrow_reader_next_chunk
func sas_arrow_reader_next_chunk(handle C.SasArrowReaderHandle, chunkInfo *C.SasArrowChunkInfo) C.int32_t {
	if handle == 0 || chunkInfo == nil {
		return C.int32_t(ffi.StatusNullArgument)
	}
	r, ok := ffi.Get(ffi.Handle(handle))
	if !ok {
		return C.int32_t(ffi.StatusNullArgument)
	}

	start, end, rows, st := r.ReadNextChunk()
	if !st.Ok() {
		return C.int32_t(st)
	}

	chunkInfo.row_count = C.uint64_t(rows)
	chunkInfo.start_row = C.uint64_t(start)
	chunkInfo.end_row = C.uint64_t(end)
	return C.int32_t(ffi.StatusOK)
}

//export sas_arrow_iterator_new
func sas_arrow_iterator_new(handle C.SasArrowReaderHandle, out *C.SasArrowIteratorHandle) C.int32_t {
	if handle == 0 || out == nil {
		return C.int32_t(ffi.StatusNullArgument)
	}

	ih, st := ffi.NewIterator(ffi.Handle(handle))
	if !st.Ok() {
		return C.int32_t(st)
	}
	*out = C.SasArrowIteratorHandle(ih)
	return C.int32_t(ffi.StatusOK)
}

//export sas_arrow_iterator_has_next
func sas_arrow_iterator_has_next(handle C.SasArrowIteratorHandle) C.int32_t {
	it, ok := ffi.GetIterator(ffi.Handle(handle))
	if !ok || !it.HasNext() {
		return 0
	}
	return 1
}

//export sas_arrow_iterator_next_row
func sas_arrow_iterator_next_row(handle C.SasArrowIteratorHandle, outValues **C.SasArrowValue, count *C.uint32_t) C.int32_t {
	if handle == 0 || outValues == nil || count == nil {
		return C.int32_t(ffi.StatusNullArgument)
	}
	it, ok := ffi.GetIterator(ffi.Handle(handle))
	if !ok {
		return C.int32_t(ffi.StatusNullArgument)
	}

	values, st := it.NextRow()
	if !st.Ok() {
		return C.int32_t(st)
	}

	n := len(values)
	arr := (*C.SasArrowValue)(C.malloc(C.size_t(n) * C.sizeof_SasArrowValue))
	if arr == nil {
		return C.int32_t(ffi.StatusOutOfMemory)
	}
	slice := unsafe.Slice(arr, n)

	for i, v := range values {
		slice[i].value_type = C.int32_t(v.Kind)
		slice[i].string_val = nil
		slice[i].numeric_val = C.double(v.Num)
		slice[i].int_val = C.int64_t(v.Int)
		if v.IsNull {
			slice[i].is_null = 1
			continue
		}
		slice[i].is_null = 0
		if v.Kind == ffi.ValueKindString {
			s := cstrdup(v.Str)
			if s == nil {
				for j := 0; j < i; j++ {
					if slice[j].string_val != nil {
						C.free(unsafe.Pointer(slice[j].string_val))
					}
				}
				C.free(unsafe.Pointer(arr))
				return C.int32_t(ffi.StatusOutOfMemory)
			}
			slice[i].string_val = s
		}
	}

	*outValues = arr
	*count = C.uint32_t(n)
	return C.int32_t(ffi.StatusOK)
}

//export sas_arrow_free_row_values
func sas_arrow_free_row_values(values *C.SasArrowValue, count C.uint32_t) {
	if values == nil {
		return
	}
	slice := unsafe.Slice(values, int(count))
	for i := range slice {
		if slice[i].string_val != nil {
			C.free(unsafe.Pointer(slice[i].string_val))
			slice[i].string_val = nil
		}
	}
	C.free(unsafe.Pointer(values))
}

//export sas_arrow_iterator_destroy
func sas_arrow_iterator_destroy(handle C.SasArrowIteratorHandle) {
	if handle == 0 {
		return
	}
	ffi.DestroyIterator(ffi.Handle(handle))
}

//export sas_arrow_reader_last_error
func sas_arrow_reader_last_error(handle C.SasArrowReaderHandle) *C.char {
	r, ok := ffi.Get(ffi.Handle(handle))
	if !ok {
		return cLastError(ffi.GlobalLastError())
	}
	return cLastError(r.LastError())
}

//export sas_arrow_get_last_error
func sas_arrow_get_last_error() *C.char {
	return cLastError(ffi.GlobalLastError())
}

// statusMsgs caches the static description strings so the returned
// pointers stay valid for the process lifetime.
var (
	statusMsgMu sync.Mutex
	statusMsgs  = map[ffi.Status]*C.char{}
)

//export sas_arrow_error_message
func sas_arrow_error_message(code C.int32_t) *C.char {
	st := ffi.Status(code)
	statusMsgMu.Lock()
	defer statusMsgMu.Unlock()
	if msg, ok := statusMsgs[st]; ok {
		return msg
	}
	msg := cstrdup(st.Message())
	statusMsgs[st] = msg
	return msg
}

//export sas_arrow_is_ok
func sas_arrow_is_ok(code C.int32_t) C.int32_t {
	if ffi.Status(code).Ok() {
		return 1
	}
	return 0
}

func main() {}
